package service

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync"

	"muebles-catalog/internal/events"
	"muebles-catalog/internal/model"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) actions() []events.Action {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Action, len(p.events))
	for i, e := range p.events {
		out[i] = e.Action
	}
	return out
}

type countingCache struct {
	mu          sync.Mutex
	entries     map[string][]model.Product
	generation  int
	hits        int
	invalidated int
}

func newCountingCache() *countingCache {
	return &countingCache{entries: map[string][]model.Product{}}
}

func (c *countingCache) Generation(context.Context) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strconv.Itoa(c.generation), true
}

func (c *countingCache) GetProducts(_ context.Context, gen, key string) ([]model.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[gen+"/"+key]
	if ok {
		c.hits++
	}
	return p, ok
}

func (c *countingCache) SetProducts(_ context.Context, gen, key string, products []model.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[gen+"/"+key] = products
}

func (c *countingCache) InvalidateProducts(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string][]model.Product{}
	c.generation++
	c.invalidated++
}

type upload struct {
	objectName  string
	contentType string
	body        []byte
}

type memoryAssets struct {
	mu        sync.Mutex
	uploads   []upload
	deleted   []string
	uploadErr error
}

func (a *memoryAssets) Upload(_ context.Context, objectName, contentType string, r io.Reader) (string, error) {
	if a.uploadErr != nil {
		return "", a.uploadErr
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.uploads = append(a.uploads, upload{objectName, contentType, body})
	return "https://assets.test/" + objectName, nil
}

func (a *memoryAssets) Delete(_ context.Context, objectName string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.deleted = append(a.deleted, objectName)
	return nil
}

var errBoom = errors.New("boom")
