package engine

import (
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/matsen/papermem/internal/provider"
	"github.com/matsen/papermem/internal/resolver"
)

func chainNames(chain []resolver.Provider) []string {
	names := make([]string, len(chain))
	for i, p := range chain {
		names[i] = p.Name
	}
	return names
}

func TestBuildChain(t *testing.T) {
	tests := []struct {
		name string
		cfg  ChainConfig
		want []string
	}{
		{
			name: "default order with contact email",
			cfg:  ChainConfig{Keys: provider.DefaultOrder, ContactEmail: "me@example.org"},
			want: []string{provider.DBLPName, provider.SemanticScholarName, provider.ScholarName, provider.CrossRefName, provider.UnpaywallName},
		},
		{
			name: "unpaywall skipped without email",
			cfg:  ChainConfig{Keys: provider.DefaultOrder},
			want: []string{provider.DBLPName, provider.SemanticScholarName, provider.ScholarName, provider.CrossRefName},
		},
		{
			name: "custom order with aliases",
			cfg:  ChainConfig{Keys: []string{"crossref", "s2"}, S2APIKey: "key"},
			want: []string{provider.CrossRefName, provider.SemanticScholarName},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain, err := BuildChain(tt.cfg, zerolog.Nop())
			if err != nil {
				t.Fatalf("BuildChain() error = %v", err)
			}
			if got := chainNames(chain); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BuildChain() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildChain_UnknownProvider(t *testing.T) {
	if _, err := BuildChain(ChainConfig{Keys: []string{"dblp", "bing"}}, zerolog.Nop()); err == nil {
		t.Error("BuildChain() error = nil for unknown provider")
	}
}
