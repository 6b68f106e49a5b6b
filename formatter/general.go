package formatter

type GeneralIssueFormatter struct{}

func (f *GeneralIssueFormatter) IssueTemplate() string {
	return `{{header .Rule .Severity .MaxLineNumWidth .Filename .StartLine .StartColumn}}
{{snippet .SnippetLines .StartLine .EndLine .MaxLineNumWidth .Padding -}}
{{underlineAndMessage .Message .Padding .StartLine .EndLine .StartColumn .EndColumn .SnippetLines -}}
{{suggestion .Suggestion .Padding -}}
{{note .Note .Padding}}
`
}

// ParseErrorFormatter points at the offending line only; the column of a
// parse error is not always meaningful.
type ParseErrorFormatter struct{}

func (f *ParseErrorFormatter) IssueTemplate() string {
	return `{{header .Rule .Severity .MaxLineNumWidth .Filename .StartLine .StartColumn}}
{{snippet .SnippetLines .StartLine .EndLine .MaxLineNumWidth .Padding -}}
{{underlineAndMessage .Message .Padding 0 0 0 0 .SnippetLines -}}
{{note .Note .Padding}}
`
}
