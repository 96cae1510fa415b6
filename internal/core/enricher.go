package core

import "sort"

// Enrich merges the kind's fixed values into rec without overwriting existing
// fields, then applies the kind's format hook. rec itself is not modified.
func (k *ImportKind) Enrich(rec Record) Record {
	out := rec.Clone()

	if len(k.FixedValues) > 0 {
		names := make([]string, 0, len(k.FixedValues))
		for name := range k.FixedValues {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			if !out.Has(name) {
				out.Set(name, k.FixedValues[name])
			}
		}
	}

	if k.Format != nil {
		out = k.Format(out)
	}
	return out
}

// PrepareBatch enriches every record and runs the kind's batch hook.
func (k *ImportKind) PrepareBatch(records []Record) []Record {
	batch := make([]Record, len(records))
	for i, rec := range records {
		batch[i] = k.Enrich(rec)
	}
	if k.BeforeImport != nil {
		batch = k.BeforeImport(batch)
	}
	return batch
}
