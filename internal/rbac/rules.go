package rbac

const (
	PermQuizCreate     Permission = "quiz:create"
	PermQuizView       Permission = "quiz:view"
	PermAttemptCreate  Permission = "attempt:create"
	PermAttemptSave    Permission = "attempt:save"
	PermAttemptSubmit  Permission = "attempt:submit"
	PermAttemptViewOwn Permission = "attempt:view-own"
	PermAttemptViewAll Permission = "attempt:view-all"
	PermAttemptManage  Permission = "attempt:manage" // act on other users' attempts
	PermGradePreview   Permission = "grade:preview"
	PermEventsRead     Permission = "events:read"
)

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]Permission{
	"student": {
		PermQuizView,
		PermAttemptCreate,
		PermAttemptSave,
		PermAttemptSubmit,
		PermAttemptViewOwn,
	},
	"teacher": {
		PermQuizCreate,
		PermQuizView,
		"attempt:view-*",
		PermGradePreview,
	},
	"admin": {
		"*", // everything
	},
}
