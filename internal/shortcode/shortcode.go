// Package shortcode generates short codes that are free in the URL store.
package shortcode

import (
	"context"
	"errors"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	DefaultAlphabet    = "abcdefghijklmnopqrstuvwxyz0123456789"
	DefaultLength      = 6
	DefaultMaxAttempts = 10
)

// ErrExhausted is returned when every attempt produced a code that is already taken.
var ErrExhausted = errors.New("no free short code found")

// Prober reports whether a short code is already taken.
type Prober interface {
	Has(ctx context.Context, shortCode string) (bool, error)
}

type Option func(*Generator)

func WithAlphabet(alphabet string) Option {
	return func(g *Generator) {
		if alphabet != "" {
			g.alphabet = alphabet
		}
	}
}

func WithLength(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.length = n
		}
	}
}

func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// Generator draws random codes and probes the store until it finds a free one.
// It does not reserve the code: callers must still insert it with an
// insert-if-absent operation.
type Generator struct {
	prober      Prober
	alphabet    string
	length      int
	maxAttempts int
}

func New(prober Prober, opts ...Option) *Generator {
	g := &Generator{
		prober:      prober,
		alphabet:    DefaultAlphabet,
		length:      DefaultLength,
		maxAttempts: DefaultMaxAttempts,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

func (g *Generator) Generate(ctx context.Context) (string, error) {
	const op = "shortcode.Generator.Generate"

	for range g.maxAttempts {
		code, err := gonanoid.Generate(g.alphabet, g.length)
		if err != nil {
			return "", fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		taken, err := g.prober.Has(ctx, code)
		if err != nil {
			return "", fmt.Errorf("%s: failed to probe short code: %w", op, err)
		}
		if !taken {
			return code, nil
		}
	}

	return "", fmt.Errorf("%s: %w after %d attempts", op, ErrExhausted, g.maxAttempts)
}
