package model

import "sort"

// LogFile describes one log file on disk. Type is the family name shared by
// the file's rotated and compressed variants.
type LogFile struct {
	Path       string `json:"path"`
	Type       string `json:"type"`
	Rotation   int    `json:"rotation"`
	Compressed bool   `json:"compressed"`
}

// Families maps a log type to its files, oldest rotation first.
type Families map[string][]LogFile

// Group collects files into rotation families. Within a family the highest
// rotation index comes first so that appending results preserves write order.
func Group(files []LogFile) Families {
	fam := make(Families)
	for _, f := range files {
		fam[f.Type] = append(fam[f.Type], f)
	}
	for _, list := range fam {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].Rotation != list[j].Rotation {
				return list[i].Rotation > list[j].Rotation
			}
			return list[i].Path < list[j].Path
		})
	}
	return fam
}

// Types returns the family names in sorted order.
func (f Families) Types() []string {
	types := make([]string, 0, len(f))
	for t := range f {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Files returns the total number of files across all families.
func (f Families) Files() int {
	n := 0
	for _, list := range f {
		n += len(list)
	}
	return n
}
