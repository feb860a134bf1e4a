package school

import "strings"

// DefaultAliases maps lower-cased alternate spellings to canonical display
// names, mirroring the alias table the community actually uses.
func DefaultAliases() map[string]string {
	return map[string]string{
		"usc":                            "USC",
		"southern cal":                   "USC",
		"southern california":            "USC",
		"ole miss":                       "Ole Miss",
		"mississippi":                    "Ole Miss",
		"miami":                          "Miami",
		"miami fl":                       "Miami",
		"the u":                          "Miami",
		"tcu":                            "TCU",
		"texas christian":                "TCU",
		"smu":                            "SMU",
		"southern methodist":             "SMU",
		"byu":                            "BYU",
		"ucf":                            "UCF",
		"central florida":                "UCF",
		"lsu":                            "LSU",
		"pitt":                           "Pitt",
		"pittsburgh":                     "Pitt",
		"boston college":                 "Boston College",
		"bc":                             "Boston College",
		"nc state":                       "NC State",
		"north carolina state":           "NC State",
		"va tech":                        "Virginia Tech",
		"vt":                             "Virginia Tech",
		"virginia polytechnic institute": "Virginia Tech",
	}
}

// Directory resolves school ids to display names and free-text names to
// schools. Lookup order is alias table, exact name, substring; the first
// substring hit wins, ambiguous prefixes are not disambiguated further.
type Directory struct {
	schools  []School
	byID     map[string]string
	aliases  map[string]string
	byLcName map[string]School
}

func NewDirectory(schools []School, aliases map[string]string) *Directory {
	if aliases == nil {
		aliases = DefaultAliases()
	}

	byID := make(map[string]string, len(schools))
	byLcName := make(map[string]School, len(schools))
	for _, s := range schools {
		if s.ID == "" {
			continue
		}
		byID[s.ID] = s.Name
		if s.Name != "" {
			byLcName[strings.ToLower(s.Name)] = s
		}
	}

	return &Directory{
		schools:  append([]School(nil), schools...),
		byID:     byID,
		aliases:  aliases,
		byLcName: byLcName,
	}
}

// NameOf returns the display name for an id, falling back to the raw id when
// the directory has no entry so unrecognized feed ids stay visible in output.
// An empty id renders as "Unknown": reign bookkeeping produces empty ids for
// games that have no predecessor (the first belt change) or no successor yet.
func (d *Directory) NameOf(id string) string {
	if d == nil || id == "" {
		return "Unknown"
	}
	if name, ok := d.byID[id]; ok && name != "" {
		return name
	}
	return id
}

// Find resolves free text to a school.
func (d *Directory) Find(text string) (School, bool) {
	if d == nil {
		return School{}, false
	}
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return School{}, false
	}

	if canonical, ok := d.aliases[needle]; ok {
		if s, ok := d.byLcName[strings.ToLower(canonical)]; ok {
			return s, true
		}
	}

	if s, ok := d.byLcName[needle]; ok {
		return s, true
	}

	for _, s := range d.schools {
		if strings.Contains(strings.ToLower(s.Name), needle) {
			return s, true
		}
	}

	return School{}, false
}
