package validation

import (
	"fmt"
	"strings"
)

const (
	maxBookTitleLen  = 200
	maxBookAuthorLen = 120
	maxBookGenreLen  = 60
)

// ValidateBookTitle validates a trimmed book title.
func ValidateBookTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("book title is required")
	}
	if len(title) > maxBookTitleLen {
		return fmt.Errorf("book title must be at most %d characters", maxBookTitleLen)
	}
	return nil
}

// ValidateBookAuthor validates a trimmed book author.
func ValidateBookAuthor(author string) error {
	if strings.TrimSpace(author) == "" {
		return fmt.Errorf("book author is required")
	}
	if len(author) > maxBookAuthorLen {
		return fmt.Errorf("book author must be at most %d characters", maxBookAuthorLen)
	}
	return nil
}

// ValidateBookGenre validates an optional genre.
func ValidateBookGenre(genre string) error {
	if len(genre) > maxBookGenreLen {
		return fmt.Errorf("genre must be at most %d characters", maxBookGenreLen)
	}
	return nil
}
