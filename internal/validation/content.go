package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maxTitleLen       = 255
	maxDescriptionLen = 1000
	maxBodyLen        = 100000
	maxCommentLen     = 10000
	maxTagLen         = 64
	maxTagsPerArticle = 20
)

// ValidateTitle requires a non-blank title of bounded length.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return fmt.Errorf("title must not exceed %d characters", maxTitleLen)
	}
	return nil
}

func ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return fmt.Errorf("description must not exceed %d characters", maxDescriptionLen)
	}
	return nil
}

func ValidateBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("body is required")
	}
	if len(body) > maxBodyLen {
		return fmt.Errorf("body must not exceed %d bytes", maxBodyLen)
	}
	return nil
}

// ValidateCommentBody requires a non-blank comment of bounded length.
func ValidateCommentBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("comment body is required")
	}
	if utf8.RuneCountInString(body) > maxCommentLen {
		return fmt.Errorf("comment must not exceed %d characters", maxCommentLen)
	}
	return nil
}

// ValidateTagList bounds the number and length of tag names. Blank names are
// rejected; duplicates are allowed and collapse later.
func ValidateTagList(tags []string) error {
	if len(tags) > maxTagsPerArticle {
		return fmt.Errorf("an article can have at most %d tags", maxTagsPerArticle)
	}
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("tag names cannot be blank")
		}
		if utf8.RuneCountInString(tag) > maxTagLen {
			return fmt.Errorf("tag %q exceeds %d characters", tag, maxTagLen)
		}
	}
	return nil
}
