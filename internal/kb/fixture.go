package kb

import (
	"context"
	"fmt"

	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed docs.yaml
var defaultDocsYAML []byte

type fixtureFile struct {
	Docs []*Doc `yaml:"docs"`
}

// DefaultDocs parses the embedded support corpus. The corpus is fixed at
// build time and loaded once at process start.
func DefaultDocs() ([]*Doc, error) {
	var f fixtureFile
	if err := yaml.Unmarshal(defaultDocsYAML, &f); err != nil {
		return nil, fmt.Errorf("kb: parse embedded docs: %w", err)
	}
	return f.Docs, nil
}

// Seed loads the embedded corpus into repo, preserving file order.
func Seed(ctx context.Context, repo Repo) error {
	docs, err := DefaultDocs()
	if err != nil {
		return err
	}
	for _, d := range docs {
		if err := repo.Add(ctx, d); err != nil {
			return fmt.Errorf("kb: seed %s: %w", d.ID, err)
		}
	}
	return nil
}
