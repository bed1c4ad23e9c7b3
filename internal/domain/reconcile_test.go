package domain

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	testEIN      = "11-1111111"
	testExtraEIN = "22-2222222"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func einSet(eins ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(eins))
	for _, e := range eins {
		set[e] = struct{}{}
	}
	return set
}

func TestReconcile(t *testing.T) {
	t.Run("recode applies to primary EIN", func(t *testing.T) {
		primary := einSet(testEIN)
		recodes := []OverrideRecord{{EIN: testEIN, SourceName: "A Pta", CanonicalName: "Lincoln ES"}}

		mapping := Reconcile(primary, recodes, nil, discardLogger())

		assert.Equal(t, map[string]string{testEIN: "Lincoln ES"}, mapping)
	})

	t.Run("override wins over recode", func(t *testing.T) {
		primary := einSet(testEIN)
		recodes := []OverrideRecord{{EIN: testEIN, SourceName: "A Pta", CanonicalName: "Lincoln ES"}}
		overrides := []OverrideRecord{{EIN: testEIN, SourceName: "A Org", CanonicalName: "Washington ES"}}

		mapping := Reconcile(primary, recodes, overrides, discardLogger())

		assert.Equal(t, map[string]string{testEIN: "Washington ES"}, mapping)
	})

	t.Run("recode outside primary set is ignored", func(t *testing.T) {
		primary := einSet(testEIN)
		recodes := []OverrideRecord{
			{EIN: testEIN, SourceName: "A Pta", CanonicalName: "Lincoln ES"},
			{EIN: "99-9999999", SourceName: "Stale Pta", CanonicalName: "Closed ES"},
		}

		mapping := Reconcile(primary, recodes, nil, discardLogger())

		assert.Equal(t, map[string]string{testEIN: "Lincoln ES"}, mapping)
		assert.NotContains(t, mapping, "99-9999999")
	})

	t.Run("override applies outside primary and recode", func(t *testing.T) {
		primary := einSet(testEIN)
		overrides := []OverrideRecord{{EIN: testExtraEIN, SourceName: "B Org", CanonicalName: "Jefferson MS"}}

		mapping := Reconcile(primary, nil, overrides, discardLogger())

		assert.Equal(t, map[string]string{testExtraEIN: "Jefferson MS"}, mapping)
	})

	t.Run("duplicate EIN within one table last row wins", func(t *testing.T) {
		primary := einSet(testEIN)
		recodes := []OverrideRecord{
			{EIN: testEIN, SourceName: "A Pta", CanonicalName: "Lincoln ES"},
			{EIN: testEIN, SourceName: "A Pta Again", CanonicalName: "Lincoln Elementary"},
		}

		mapping := Reconcile(primary, recodes, nil, discardLogger())

		assert.Equal(t, "Lincoln Elementary", mapping[testEIN])
	})

	t.Run("override present for recoded and extra EINs", func(t *testing.T) {
		primary := einSet(testEIN, "33-3333333")
		recodes := []OverrideRecord{
			{EIN: testEIN, SourceName: "A Pta", CanonicalName: "Lincoln ES"},
			{EIN: "33-3333333", SourceName: "C Pta", CanonicalName: "Roosevelt ES"},
		}
		overrides := []OverrideRecord{
			{EIN: testEIN, SourceName: "A Org", CanonicalName: "Washington ES"},
			{EIN: testExtraEIN, SourceName: "B Org", CanonicalName: "Jefferson MS"},
		}

		mapping := Reconcile(primary, recodes, overrides, discardLogger())

		assert.Equal(t, map[string]string{
			testEIN:      "Washington ES",
			"33-3333333": "Roosevelt ES",
			testExtraEIN: "Jefferson MS",
		}, mapping)
	})

	t.Run("empty inputs produce empty mapping", func(t *testing.T) {
		mapping := Reconcile(nil, nil, nil, discardLogger())
		assert.Empty(t, mapping)
	})
}
