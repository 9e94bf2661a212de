// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import "strconv"

// AtoiDefault converts a string to an int using strconv.Atoi.
// If the string is empty or cannot be parsed as an integer,
// it returns the provided default value instead.
//
// Example:
//
//	n := utils.AtoiDefault("42", 0) // returns 42
//	n = utils.AtoiDefault("", 10)   // returns 10
//	n = utils.AtoiDefault("x", 5)   // returns 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ClampPage bounds a requested page number against the number of matching
// rows. It returns the clamped page together with the total page count,
// where pageCount = ceil(total/pageSize) with a minimum of 1, and page is
// forced into [1, pageCount]. The resulting (page-1)*pageSize offset is
// therefore always a valid, non-negative skip.
func ClampPage(page, pageSize int, total int64) (int, int) {
	if pageSize < 1 {
		pageSize = 1
	}
	pageCount := int((total + int64(pageSize) - 1) / int64(pageSize))
	if pageCount < 1 {
		pageCount = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pageCount {
		page = pageCount
	}
	return page, pageCount
}
