package service

import "strings"

// RenderTemplate substitutes {placeholder} tokens with values from data.
// Unknown tokens are left in place so a half-filled payload is visible in
// the delivered message rather than silently blanked.
func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}
