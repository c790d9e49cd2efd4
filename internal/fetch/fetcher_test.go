package fetch

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadQueries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.yaml")
	data := `newsapi_queries:
  - "smart meter Africa"
  - "electricity metering UAE"
google_news_queries:
  - "prepaid meter Nigeria"
google_news_countries:
  - gl: "ng"
    location: "Nigeria"
  - gl: "eg"
    location: "Egypt"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	q, err := LoadQueries(path)
	if err != nil {
		t.Fatalf("LoadQueries: %v", err)
	}
	if len(q.NewsAPI) != 2 || q.NewsAPI[0] != "smart meter Africa" {
		t.Errorf("NewsAPI queries = %v", q.NewsAPI)
	}
	if len(q.GoogleNews) != 1 {
		t.Errorf("GoogleNews queries = %v", q.GoogleNews)
	}
	if len(q.GoogleNewsCountries) != 2 || q.GoogleNewsCountries[0].GL != "ng" {
		t.Errorf("countries = %v", q.GoogleNewsCountries)
	}
}

func TestLoadQueries_MissingFile(t *testing.T) {
	if _, err := LoadQueries(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefaultQueries(t *testing.T) {
	q := DefaultQueries()
	if len(q.NewsAPI) == 0 || len(q.GoogleNews) == 0 || len(q.GoogleNewsCountries) == 0 {
		t.Errorf("default query set has empty sections: %+v", q)
	}
}
