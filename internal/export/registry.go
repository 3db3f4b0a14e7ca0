package export

// ByName returns the non-database Exporter registered under name, or
// nil if there is none. SQLite is opened separately via OpenSQLite
// since it manages on-disk state rather than streaming to an io.Writer.
func ByName(name string) Exporter {
	switch name {
	case "markdown", "md":
		return Markdown{}
	case "text", "txt":
		return PlainText{}
	case "html":
		return HTML{}
	case "json":
		return JSON{}
	case "jsonl":
		return JSONL{}
	case "csv":
		return CSV{}
	case "xml":
		return XMLExport{}
	default:
		return nil
	}
}

// Names lists every registered streaming exporter name, in the order
// spec's exporter table lists them.
func Names() []string {
	return []string{"markdown", "text", "html", "json", "jsonl", "csv", "xml"}
}
