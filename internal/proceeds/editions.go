package proceeds

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed editions.yaml
var defaultEditions []byte

type Beneficiary struct {
	Name    string `yaml:"name" json:"name"`
	Address string `yaml:"address" json:"address"`
	Pct     uint32 `yaml:"pct" json:"pct"`
}

// Edition is a fixed tax table. Beneficiary shares are Pct/Denominator of the
// pot and always sum to Total.
type Edition struct {
	ID            string        `yaml:"id" json:"id"`
	Denominator   uint32        `yaml:"denominator" json:"denominator"`
	Total         uint32        `yaml:"total" json:"total"`
	Beneficiaries []Beneficiary `yaml:"beneficiaries" json:"beneficiaries"`
}

func (e Edition) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("edition without id")
	}
	if e.Denominator == 0 {
		return fmt.Errorf("edition %s: zero denominator", e.ID)
	}

	var sum uint32
	for _, b := range e.Beneficiaries {
		if b.Address == "" {
			return fmt.Errorf("edition %s: beneficiary %q without address", e.ID, b.Name)
		}
		sum += b.Pct
	}
	if sum != e.Total {
		return fmt.Errorf("edition %s: beneficiaries sum to %d, want %d", e.ID, sum, e.Total)
	}
	if e.Total >= e.Denominator {
		return fmt.Errorf("edition %s: total %d leaves nothing of %d", e.ID, e.Total, e.Denominator)
	}
	return nil
}

type Editions map[string]Edition

func (e Editions) Get(id string) (Edition, bool) {
	edition, ok := e[id]
	return edition, ok
}

func ParseEditions(data []byte) (Editions, error) {
	var document struct {
		Editions []Edition `yaml:"editions"`
	}
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("parse editions: %w", err)
	}

	editions := make(Editions, len(document.Editions))
	for _, edition := range document.Editions {
		if err := edition.Validate(); err != nil {
			return nil, err
		}
		if _, ok := editions[edition.ID]; ok {
			return nil, fmt.Errorf("duplicate edition %s", edition.ID)
		}
		editions[edition.ID] = edition
	}
	return editions, nil
}

// LoadEditions reads the table at path, or the built-in table when path is empty.
func LoadEditions(path string) (Editions, error) {
	if path == "" {
		return ParseEditions(defaultEditions)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read editions file: %w", err)
	}
	return ParseEditions(data)
}
