package tasks

// DefineTasks registers all available tasks
func DefineTasks() {
	// Register general tasks
	RegisterHandler(LogInfoTask.TaskID(), LogInfoTask.HandleExecution)

	// Register delivery tasks
	RegisterHandler(RedispatchFailedDeliveriesTask.TaskID(), RedispatchFailedDeliveriesTask.HandleExecution)

	// Register notification tasks
	RegisterHandler(SendEnrollmentEmailTask.TaskID(), SendEnrollmentEmailTask.HandleExecution)
}
