package domain

import "fmt"

// JSON keys of the status API contract.
const (
	FieldHomeworks    = "homeworks"
	FieldStatus       = "status"
	FieldHomeworkName = "homework_name"
)

// APIResponse is the decoded body of the status API. It stays untyped so a
// missing key can be told apart from a key of the wrong type.
type APIResponse = map[string]any

// HomeworkRecord is one element of the "homeworks" list.
type HomeworkRecord = map[string]any

// StatusChangeMessage formats the notification for a homework whose review
// status changed.
func StatusChangeMessage(homeworkName, verdict string) string {
	return fmt.Sprintf("Изменился статус проверки работы \"%s\". %s", homeworkName, verdict)
}

// FailureMessage formats the report sent when a cycle fails.
func FailureMessage(err error) string {
	return fmt.Sprintf("Сбой в работе программы: %v", err)
}
