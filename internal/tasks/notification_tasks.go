package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"academy_app_echo/internal/models"
	"academy_app_echo/internal/services"
)

// SendEnrollmentEmailArgs defines the arguments for an enrollment email
// task.
type SendEnrollmentEmailArgs struct {
	UserID   uint `json:"user_id"`
	CourseID uint `json:"course_id"`
}

// SendEnrollmentEmailTaskDef sends the enrollment confirmation email
// scheduled by the reconciler when a payment settles.
type SendEnrollmentEmailTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *SendEnrollmentEmailTaskDef) TaskID() string {
	return services.TaskSendEnrollmentEmail
}

// CreateTask builds a ScheduledTask record for this task
func (t *SendEnrollmentEmailTaskDef) CreateTask(args SendEnrollmentEmailArgs) (*models.ScheduledTask, error) {
	return BuildScheduledTask(t.TaskID(), args, time.Now(), nil, models.ScheduledTaskTypeOneTime, 3)
}

// HandleExecution loads the user and course and sends the confirmation.
func (t *SendEnrollmentEmailTaskDef) HandleExecution(ctx context.Context, deps *Deps, task models.ScheduledTask) (map[string]interface{}, error) {
	argsBytes, err := json.Marshal(task.Arguments)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal args: %w", err)
	}

	var args SendEnrollmentEmailArgs
	if err := json.Unmarshal(argsBytes, &args); err != nil {
		return nil, fmt.Errorf("failed to unmarshal args: %w", err)
	}
	if args.UserID == 0 || args.CourseID == 0 {
		return nil, fmt.Errorf("user_id and course_id are required")
	}

	var user models.User
	if err := deps.DB.WithContext(ctx).First(&user, args.UserID).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch user %d: %w", args.UserID, err)
	}

	var course models.Course
	if err := deps.DB.WithContext(ctx).First(&course, args.CourseID).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch course %d: %w", args.CourseID, err)
	}

	subject := fmt.Sprintf("You're enrolled in %s", course.Title)
	body := fmt.Sprintf("Hi %s,\n\nYour payment was confirmed and you now have access to %s.\n\nHappy learning!",
		user.Name, course.Title)

	if err := deps.Email.SendEmail([]string{user.Email}, subject, body); err != nil {
		return nil, fmt.Errorf("failed to send enrollment email: %w", err)
	}

	deps.Log.Infow("enrollment email sent", "user_id", user.ID, "course_id", course.ID)
	return map[string]interface{}{
		"status": "success",
		"email":  user.Email,
	}, nil
}

// SendEnrollmentEmailTask is the singleton instance of
// SendEnrollmentEmailTaskDef
var SendEnrollmentEmailTask = &SendEnrollmentEmailTaskDef{}
