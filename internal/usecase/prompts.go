package usecase

import "fmt"

func summaryPrompt(limit int) string {
	return fmt.Sprintf("Based on the following transcript, write a short description of the video (up to %d characters).", limit)
}

func translatePrompt(lang string) string {
	return fmt.Sprintf("Translate the following SRT subtitles into %s, preserving the formatting.", lang)
}
