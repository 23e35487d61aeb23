// Package quotes holds the quote catalogue and picks the quote of the day.
package quotes

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/benvon/daily-journal/internal/database"
	"github.com/benvon/daily-journal/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed quotes.yaml
var defaultCatalogue []byte

// Quote is one catalogue entry
type Quote struct {
	Text   string `yaml:"text"`
	Author string `yaml:"author,omitempty"`
}

// String renders the quote as sent to users
func (q Quote) String() string {
	if q.Author == "" {
		return q.Text
	}
	return fmt.Sprintf("%s\n(%s)", q.Text, q.Author)
}

// Catalogue is an immutable list of quotes
type Catalogue struct {
	quotes []Quote
}

type catalogueFile struct {
	Quotes []Quote `yaml:"quotes"`
}

// Parse decodes a YAML catalogue, dropping blank entries
func Parse(data []byte) (*Catalogue, error) {
	var f catalogueFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse quotes: %w", err)
	}
	c := &Catalogue{}
	for _, q := range f.Quotes {
		q.Text = strings.TrimSpace(q.Text)
		if q.Text != "" {
			c.quotes = append(c.quotes, q)
		}
	}
	if len(c.quotes) == 0 {
		return nil, errors.New("quote catalogue is empty")
	}
	return c, nil
}

// Load reads the catalogue at path, or the built-in one when path is empty
func Load(path string) (*Catalogue, error) {
	if path == "" {
		return Parse(defaultCatalogue)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read quotes file: %w", err)
	}
	return Parse(data)
}

// Len returns the number of quotes
func (c *Catalogue) Len() int {
	return len(c.quotes)
}

// Service picks a random quote and records it as the user's quote of the day
type Service struct {
	catalogue *Catalogue
	entries   database.DailyEntryRepositoryInterface

	mu  sync.Mutex
	rng *rand.Rand
}

// NewService creates a quote service; a nil rng is seeded from the clock
func NewService(catalogue *Catalogue, entries database.DailyEntryRepositoryInterface, rng *rand.Rand) *Service {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &Service{catalogue: catalogue, entries: entries, rng: rng}
}

// Pick returns a random quote
func (s *Service) Pick() Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalogue.quotes[s.rng.IntN(len(s.catalogue.quotes))]
}

// Today picks a quote and saves it as key's quote for the day of now, replacing
// any earlier pick
func (s *Service) Today(ctx context.Context, key models.UserKey, now time.Time) (string, error) {
	text := s.Pick().String()
	if err := s.entries.SaveQuote(ctx, &models.Quote{Key: key, Text: text, Day: models.DayOf(now)}); err != nil {
		return "", fmt.Errorf("failed to save quote: %w", err)
	}
	return text, nil
}
