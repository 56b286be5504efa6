// ABOUTME: Demo tool packs with no external dependencies: echo, calculator,
// ABOUTME: a fake weather lookup, catalog file search, and a static company directory.

package tools

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/zack-dev-cm/mcp-server/internal/registry"
)

// RegisterBase registers the always-available demo tools.
func RegisterBase(reg *registry.Registry, deps Deps) error {
	catalog := deps.Catalog

	if _, err := reg.Register(
		"echo",
		"Echoes the given text back to the caller.",
		[]registry.Input{
			{Name: "text", Type: "string", Description: "Text to echo back", Required: true},
		},
		func(ctx context.Context, params map[string]any) (any, error) {
			msg, err := stringParam(params, "text")
			if err != nil {
				return nil, err
			}
			return map[string]any{"echo": msg, "timestamp": isoNow()}, nil
		},
	); err != nil {
		return err
	}

	if _, err := reg.Register(
		"calculator",
		"Evaluates a basic arithmetic expression (numbers, + - * / ^ and parentheses).",
		[]registry.Input{
			{Name: "expression", Type: "string", Description: "Arithmetic expression, e.g. \"2 + 2 * 3\"", Required: true},
		},
		func(ctx context.Context, params map[string]any) (any, error) {
			expr, err := stringParam(params, "expression")
			if err != nil {
				return nil, err
			}
			v, err := evalArithmetic(expr)
			if err != nil {
				return nil, err
			}
			return map[string]any{"expression": expr, "result": v}, nil
		},
	); err != nil {
		return err
	}

	if _, err := reg.Register(
		"weather.fake",
		"Returns randomized fake weather for a location. For demos only.",
		[]registry.Input{
			{Name: "location", Type: "string", Description: "City or place name", Required: true},
		},
		func(ctx context.Context, params map[string]any) (any, error) {
			location, err := stringParam(params, "location")
			if err != nil {
				return nil, err
			}
			return fakeWeather(location), nil
		},
	); err != nil {
		return err
	}

	if _, err := reg.Register(
		"file.search",
		"Searches registered catalog resources by description.",
		[]registry.Input{
			{Name: "query", Type: "string", Description: "Substring to match against resource descriptions", Required: true},
		},
		func(ctx context.Context, params map[string]any) (any, error) {
			query, err := stringParam(params, "query")
			if err != nil {
				return nil, err
			}
			matches := catalog.SearchResources(query)
			if matches == nil {
				matches = []registry.Resource{}
			}
			return map[string]any{"query": query, "matches": matches}, nil
		},
	); err != nil {
		return err
	}

	return nil
}

var weatherConditions = []string{"sunny", "cloudy", "rainy", "windy"}

// fakeWeather invents a reading between 15 and 30 degrees, rounded to one
// decimal place.
func fakeWeather(location string) map[string]any {
	temp := math.Round((15+rand.Float64()*15)*10) / 10
	return map[string]any{
		"location":      location,
		"temperature_c": temp,
		"condition":     weatherConditions[rand.Intn(len(weatherConditions))],
		"observed":      isoNow(),
	}
}

// companyRecord is a row in the static demo directory.
type companyRecord struct {
	Name     string `json:"name"`
	Industry string `json:"industry"`
	Country  string `json:"country"`
	Founded  int    `json:"founded"`
}

var companyDirectory = []companyRecord{
	{Name: "Acme Robotics", Industry: "robotics", Country: "US", Founded: 2011},
	{Name: "Borealis Data", Industry: "analytics", Country: "NO", Founded: 2016},
	{Name: "Cobalt Freight", Industry: "logistics", Country: "DE", Founded: 2008},
	{Name: "Dune Energy", Industry: "solar", Country: "AU", Founded: 2019},
	{Name: "Evergreen Labs", Industry: "biotech", Country: "CA", Founded: 2014},
}

// RegisterCompany registers the static company directory lookup.
func RegisterCompany(reg *registry.Registry, deps Deps) error {
	_, err := reg.Register(
		"company.search",
		"Searches a small static company directory by name or industry.",
		[]registry.Input{
			{Name: "query", Type: "string", Description: "Substring matched against company name and industry", Required: true},
		},
		func(ctx context.Context, params map[string]any) (any, error) {
			query, err := stringParam(params, "query")
			if err != nil {
				return nil, err
			}
			needle := strings.ToLower(query)
			var hits []companyRecord
			for _, rec := range companyDirectory {
				if strings.Contains(strings.ToLower(rec.Name), needle) ||
					strings.Contains(strings.ToLower(rec.Industry), needle) {
					hits = append(hits, rec)
				}
			}
			if hits == nil {
				hits = []companyRecord{}
			}
			return map[string]any{"query": query, "companies": hits, "count": len(hits)}, nil
		},
	)
	if err != nil {
		return fmt.Errorf("company.search: %w", err)
	}
	return nil
}
