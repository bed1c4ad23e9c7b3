package domain

import "log/slog"

// Reconcile builds the canonical EIN → school-name mapping from the primary
// discovery set and the two override tables.
//
// The mapping is assembled as ordered overlay passes, lowest priority first:
//
//  1. Recode rows are inserted only when their EIN is in the primary set.
//     Recodes document search results, so rows for unknown EINs are ignored.
//  2. Extra-org rows are inserted unconditionally and overwrite anything the
//     recode pass put there.
//
// Running the high-priority pass last is what guarantees its precedence; do
// not collapse the passes into a single merged table. A duplicate EIN within
// one table is not an error — the last row wins.
func Reconcile(primary map[string]struct{}, recodes, overrides []OverrideRecord, logger *slog.Logger) map[string]string {
	mapping := make(map[string]string, len(recodes)+len(overrides))

	for _, rec := range recodes {
		if _, ok := primary[rec.EIN]; !ok {
			continue
		}
		mapping[rec.EIN] = rec.CanonicalName
	}

	for _, rec := range overrides {
		if prev, ok := mapping[rec.EIN]; ok && prev != rec.CanonicalName {
			logger.Warn("override table supersedes recode entry",
				"ein", rec.EIN,
				"recode_name", prev,
				"override_name", rec.CanonicalName,
			)
		}
		mapping[rec.EIN] = rec.CanonicalName
	}

	return mapping
}
