package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"muebles-catalog/internal/model"
	"muebles-catalog/internal/repository"
	"muebles-catalog/internal/service"

	"github.com/cucumber/godog"
)

type catalogFeature struct {
	repo    *repository.MemoryProductRepository
	handler http.Handler
	rec     *httptest.ResponseRecorder
}

func (f *catalogFeature) anEmptyCatalog() error {
	f.repo = repository.NewMemoryProductRepository()
	products := service.NewProductService(f.repo)
	f.handler = NewRouter(Handlers{
		Product: NewProductHandler(products, 1<<20),
		User:    NewUserHandler(service.NewUserService(nil)),
		Health:  NewHealthHandler(service.NewHealthService(nil, nil)),
	})
	f.rec = nil
	return nil
}

func (f *catalogFeature) theCatalogContains(nombre, tipo string) error {
	return f.repo.Insert(context.Background(), &model.Product{
		Nombre:    nombre,
		Categoria: "varios",
		Codigo:    strings.ToUpper(nombre[:1]) + "-1",
		Tipo:      tipo,
	})
}

func (f *catalogFeature) send(method, target, body string) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	f.rec = httptest.NewRecorder()
	f.handler.ServeHTTP(f.rec, req)
}

func (f *catalogFeature) iPOST(target string, body *godog.DocString) error {
	f.send(http.MethodPost, target, body.Content)
	return nil
}

func (f *catalogFeature) iGET(target string) error {
	f.send(http.MethodGet, target, "")
	return nil
}

func (f *catalogFeature) theResponseStatusIs(code int) error {
	if f.rec.Code != code {
		return fmt.Errorf("expected status %d, got %d: %s", code, f.rec.Code, f.rec.Body.String())
	}
	return nil
}

func (f *catalogFeature) theResponseHasAGeneratedID() error {
	var p model.Product
	if err := json.Unmarshal(f.rec.Body.Bytes(), &p); err != nil {
		return err
	}
	if p.ID.IsZero() {
		return errors.New("expected a generated _id")
	}
	return nil
}

func (f *catalogFeature) errorBody() (ErrorResponse, error) {
	var body ErrorResponse
	err := json.Unmarshal(f.rec.Body.Bytes(), &body)
	return body, err
}

func (f *catalogFeature) theErrorIs(kind string) error {
	body, err := f.errorBody()
	if err != nil {
		return err
	}
	if body.Error != kind {
		return fmt.Errorf("expected error %q, got %q", kind, body.Error)
	}
	return nil
}

func (f *catalogFeature) theErrorMessageMentions(s string) error {
	body, err := f.errorBody()
	if err != nil {
		return err
	}
	if !strings.Contains(body.Message, s) {
		return fmt.Errorf("expected message to mention %q, got %q", s, body.Message)
	}
	return nil
}

func (f *catalogFeature) theFieldIsReported(field string) error {
	body, err := f.errorBody()
	if err != nil {
		return err
	}
	for _, fe := range body.Errors {
		if fe.Field == field {
			return nil
		}
	}
	return fmt.Errorf("field %q not reported in %+v", field, body.Errors)
}

func (f *catalogFeature) theCatalogHas(n int) error {
	got, err := f.repo.Count(context.Background(), model.ProductFilter{})
	if err != nil {
		return err
	}
	if int(got) != n {
		return fmt.Errorf("expected %d products, got %d", n, got)
	}
	return nil
}

func (f *catalogFeature) listed() ([]model.Product, error) {
	var products []model.Product
	err := json.Unmarshal(f.rec.Body.Bytes(), &products)
	return products, err
}

func (f *catalogFeature) everyListedProductHasTipo(tipo string) error {
	products, err := f.listed()
	if err != nil {
		return err
	}
	for _, p := range products {
		if p.Tipo != tipo {
			return fmt.Errorf("product %q has tipo %q", p.Nombre, p.Tipo)
		}
	}
	return nil
}

func (f *catalogFeature) theListHas(n int) error {
	products, err := f.listed()
	if err != nil {
		return err
	}
	if len(products) != n {
		return fmt.Errorf("expected %d listed products, got %d", n, len(products))
	}
	return nil
}

func initializeCatalogScenario(ctx *godog.ScenarioContext) {
	f := &catalogFeature{}

	ctx.Step(`^an empty catalog$`, f.anEmptyCatalog)
	ctx.Step(`^the catalog contains a product named "([^"]*)" of tipo "([^"]*)"$`, f.theCatalogContains)

	ctx.Step(`^I POST to "([^"]*)":$`, f.iPOST)
	ctx.Step(`^I GET "([^"]*)"$`, f.iGET)

	ctx.Step(`^the response status is (\d+)$`, f.theResponseStatusIs)
	ctx.Step(`^the response has a generated id$`, f.theResponseHasAGeneratedID)
	ctx.Step(`^the error is "([^"]*)"$`, f.theErrorIs)
	ctx.Step(`^the error message mentions "([^"]*)"$`, f.theErrorMessageMentions)
	ctx.Step(`^the field "([^"]*)" is reported$`, f.theFieldIsReported)
	ctx.Step(`^the catalog has (\d+) products?$`, f.theCatalogHas)
	ctx.Step(`^every listed product has tipo "([^"]*)"$`, f.everyListedProductHasTipo)
	ctx.Step(`^the list has (\d+) products?$`, f.theListHas)
}

func TestCatalogFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeCatalogScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
