package naming_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode"

	"github.com/docugraph/docugraph/pkg/naming"
	"github.com/stretchr/testify/assert"
)

type fakeLister struct {
	names []string
	err   error
}

func (f *fakeLister) ListNamespaces(ctx context.Context) ([]string, error) {
	return f.names, f.err
}

func TestDeriveName(t *testing.T) {
	cases := map[string]string{
		"":                    "GDefault",
		"   ":                 "GDefault",
		"quarterly report":    "QuarterlyReport",
		"Quarterly  REPORT!!": "QuarterlyReport",
		"2024 Report!":        "G2024Report",
		"contract_v2.final":   "ContractV2Final",
		"---":                 "GDefault",
		"déjà vu":             "DJVu",
		"a":                   "A",
	}
	for title, want := range cases {
		assert.Equal(t, want, naming.DeriveName(title), "title %q", title)
	}
}

func TestDeriveNameInvariants(t *testing.T) {
	titles := []string{"", "2024", "!!!", strings.Repeat("very long title ", 20), "ok"}
	for _, title := range titles {
		name := naming.DeriveName(title)
		assert.NotEmpty(t, name)
		assert.True(t, unicode.IsLetter(rune(name[0])), "%q must start with a letter", name)
		assert.LessOrEqual(t, len(name), naming.MaxNameLen)
		for _, r := range name {
			assert.True(t, unicode.IsLetter(r) || unicode.IsDigit(r), "%q must be alphanumeric", name)
		}
	}
}

func TestUniquifyFreeName(t *testing.T) {
	svc := naming.NewService(&fakeLister{names: []string{"Other"}})
	assert.Equal(t, "Report", svc.Uniquify(context.Background(), "Report"))
}

func TestUniquifyAppendsSuffixes(t *testing.T) {
	svc := naming.NewService(&fakeLister{names: []string{"Report", "Report-2"}})
	assert.Equal(t, "Report-3", svc.Uniquify(context.Background(), "Report"))
}

func TestUniquifyTracksCreatedNames(t *testing.T) {
	lister := &fakeLister{names: []string{"Report"}}
	svc := naming.NewService(lister)

	first := svc.Uniquify(context.Background(), "Report")
	assert.Equal(t, "Report-2", first)

	// Once creation is recorded, the same base resolves differently again.
	lister.names = append(lister.names, first)
	second := svc.Uniquify(context.Background(), "Report")
	assert.Equal(t, "Report-3", second)
	assert.NotEqual(t, first, second)
}

func TestUniquifyRetruncatesAtCap(t *testing.T) {
	base := strings.Repeat("N", naming.MaxNameLen)
	svc := naming.NewService(&fakeLister{names: []string{base}})

	got := svc.Uniquify(context.Background(), base)
	assert.NotEqual(t, base, got)
	assert.LessOrEqual(t, len(got), naming.MaxNameLen)
	assert.True(t, strings.HasSuffix(got, "-2"))
}

func TestUniquifyListerUnavailable(t *testing.T) {
	svc := naming.NewService(&fakeLister{err: errors.New("store down")})
	assert.Equal(t, "Report", svc.Uniquify(context.Background(), "Report"))
}
