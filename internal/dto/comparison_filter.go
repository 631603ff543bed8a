// ComparisonFilter narrows the comparison history list.
package dto

type ComparisonFilter struct {
	Outcome    string
	Strategy   string
	ChangeOnly bool
	Limit      int
	Offset     int
}
