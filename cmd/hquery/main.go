// Command hquery runs a boolean free-text search or a restricted SQL
// query against JSON documents described by a YAML schema registry.
//
// Usage:
//
//	hquery [flags]
//
// Flags:
//
//	-config string       Registry YAML file (required)
//	-sql string          Run a SQL query instead of a boolean search
//	-query string        Boolean query string (search mode)
//	-root string          Root name to search (search mode)
//	-fields string        Comma-separated flat field paths searched (search mode)
//	-fuzzy                Enable fuzzy term matching
//	-exact                Require exact term matching (ignored with -fuzzy)
//	-temp float            Fuzzy temperature 0-100 (default 0)
//	-max-results int        Cap the number of results (0 = unlimited)
//	-unflatten              Rebuild nested documents from the results
//	-verbose                Verbose logging
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/kaptinlin/hquery"
)

var (
	configPath = flag.String("config", "", "Registry YAML file (required)")
	sqlQuery   = flag.String("sql", "", "Run a SQL query instead of a boolean search")
	query      = flag.String("query", "", "Boolean query string (search mode)")
	root       = flag.String("root", "", "Root name to search (search mode)")
	fields     = flag.String("fields", "", "Comma-separated flat field paths searched (search mode)")
	fuzzy      = flag.Bool("fuzzy", false, "Enable fuzzy term matching")
	exact      = flag.Bool("exact", false, "Require exact term matching (ignored with -fuzzy)")
	temp       = flag.Float64("temp", 0, "Fuzzy temperature 0-100")
	maxResults = flag.Int("max-results", 0, "Cap the number of results (0 = unlimited)")
	unflatten  = flag.Bool("unflatten", false, "Rebuild nested documents from the results")
	verbose    = flag.Bool("verbose", false, "Verbose logging")
)

func main() {
	flag.Parse()

	if *configPath == "" {
		log.Fatalf("❌ -config is required")
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("❌ failed to load config: %v", err)
	}

	if *verbose {
		log.Printf("📋 loaded %d schema(s) from %s", len(cfg.Schemas), *configPath)
	}

	registry, err := cfg.BuildRegistry()
	if err != nil {
		log.Fatalf("❌ failed to build registry: %v", err)
	}

	documents, err := loadDocuments(cfg)
	if err != nil {
		log.Fatalf("❌ failed to load documents: %v", err)
	}

	var results []hquery.Result
	var byField map[string][]hquery.Result
	switch {
	case *sqlQuery != "":
		if *verbose {
			log.Printf("🔍 running sql query: %s", *sqlQuery)
		}
		results, err = hquery.SQL(registry, documents, *sqlQuery)
	case *query != "":
		if *root == "" {
			log.Fatalf("❌ -root is required in search mode")
		}
		schema, ok := registry.Lookup(*root)
		if !ok {
			log.Fatalf("❌ no schema registered for root %q", *root)
		}
		if *verbose {
			log.Printf("🔎 running boolean search on root %q: %s", *root, *query)
		}
		opts := hquery.SearchOptions{Fuzzy: *fuzzy, Exact: *exact, Temp: *temp, MaxResults: *maxResults}
		targetFields := splitFields(*fields)
		switch len(targetFields) {
		case 0:
			log.Fatalf("❌ -fields is required in search mode")
		case 1:
			results, err = hquery.Search(schema, documents[*root], nil, nil, targetFields[0], []string{*query}, opts)
		default:
			byField, err = hquery.SearchFields(schema, documents[*root], nil, nil, targetFields, []string{*query}, opts)
		}
	default:
		log.Fatalf("❌ one of -sql or -query must be given")
	}
	if err != nil {
		log.Fatalf("❌ query failed: %v", err)
	}

	if byField != nil {
		total := 0
		for _, rs := range byField {
			total += len(rs)
		}
		if *verbose {
			log.Printf("✅ %d result(s) across %d field(s)", total, len(byField))
		}
		if *unflatten {
			log.Fatalf("❌ -unflatten is not supported with multiple -fields")
		}
		for field, rs := range byField {
			fmt.Printf("# field: %s\n", field)
			printResults(rs)
		}
		return
	}

	if *verbose {
		log.Printf("✅ %d result(s)", len(results))
	}

	if *unflatten {
		doc, err := hquery.Unflat(registry, results)
		if err != nil {
			log.Fatalf("❌ unflatten failed: %v", err)
		}
		printJSON(doc)
		return
	}

	printResults(results)
}

func loadDocuments(cfg *Config) (map[string]hquery.Value, error) {
	out := make(map[string]hquery.Value, len(cfg.Documents))
	for root, path := range cfg.Documents {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("root %q: %w", root, err)
		}
		v, err := hquery.ParseJSON(data)
		if err != nil {
			return nil, fmt.Errorf("root %q: %w", root, err)
		}
		out[root] = v
	}
	return out, nil
}

func splitFields(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func printResults(results []hquery.Result) {
	for _, r := range results {
		fields := hquery.Map(r.Fields)
		indexes := hquery.Map(r.Indexes)
		entry := hquery.Map(map[string]hquery.Value{
			"root":    hquery.Str(r.Root),
			"indexes": indexes,
			"fields":  fields,
		})
		printJSON(entry)
	}
}

func printJSON(v hquery.Value) {
	data, err := hquery.MarshalJSON(v)
	if err != nil {
		log.Fatalf("❌ failed to encode result: %v", err)
	}
	fmt.Println(string(data))
}
