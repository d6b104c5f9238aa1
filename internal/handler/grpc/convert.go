package grpc

import (
	"encoding/json"
	"strings"

	"muebles-catalog/internal/model"

	"google.golang.org/protobuf/types/known/structpb"
)

// toStruct goes through the JSON form so gRPC clients see the REST field names.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func toList(products []model.Product) (*structpb.ListValue, error) {
	items := make([]any, 0, len(products))
	for _, p := range products {
		s, err := toStruct(p)
		if err != nil {
			return nil, err
		}
		items = append(items, s.AsMap())
	}
	return structpb.NewList(items)
}

func inputFromStruct(s *structpb.Struct) (model.ProductInput, error) {
	var in model.ProductInput
	b, err := json.Marshal(s.AsMap())
	if err != nil {
		return in, err
	}
	err = json.Unmarshal(b, &in)
	return in, err
}

func stringField(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	v, ok := s.GetFields()[key]
	if !ok {
		return ""
	}
	return strings.TrimSpace(v.GetStringValue())
}

func filterFromStruct(s *structpb.Struct) model.ProductFilter {
	return model.ProductFilter{
		Tipo:      stringField(s, "tipo"),
		Nombre:    stringField(s, "nombre"),
		Categoria: stringField(s, "categoria"),
	}
}

// idFromStruct accepts both "id" and "_id".
func idFromStruct(s *structpb.Struct) string {
	if id := stringField(s, "id"); id != "" {
		return id
	}
	return stringField(s, "_id")
}
