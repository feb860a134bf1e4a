package school

// School is one team in the directory feed. IDs are opaque strings; the
// production sheet uses numeric ids but nothing here depends on that.
type School struct {
	ID   string
	Name string
}
