package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"academy_app_echo/internal/config"
	"academy_app_echo/internal/models"
	"academy_app_echo/internal/repository"
	"academy_app_echo/internal/services"
	"academy_app_echo/internal/tasks"
	"academy_app_echo/pkg/logger"
)

const pollInterval = 1 * time.Minute

func main() {
	// Load environment variables; missing .env means system env only
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel)
	defer log.Sync()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := services.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}

	repos := repository.New(db)
	dispatcher := services.NewWebhookDispatcher(repos.Subscriptions, repos.DeliveryLogs, cfg.DispatchTimeout, log)

	deps := &tasks.Deps{
		DB:         db,
		Repos:      repos,
		Dispatcher: dispatcher,
		Email:      services.NewEmailService(cfg.SMTP),
		Log:        log,
	}

	// Initialize Task Registry
	tasks.DefineTasks()

	log.Info("worker started")

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Info("shutting down worker")
		cancel()
	}()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	// Run once at startup, then on every tick.
	processScheduledTasks(ctx, deps)

	for {
		select {
		case <-ticker.C:
			processScheduledTasks(ctx, deps)
		case <-ctx.Done():
			return
		}
	}
}

func processScheduledTasks(ctx context.Context, deps *tasks.Deps) {
	var pendingTasks []models.ScheduledTask
	now := time.Now()
	if err := deps.DB.Where("status = ? AND due <= ?", models.ScheduledTaskStatusActive, now).Find(&pendingTasks).Error; err != nil {
		deps.Log.Errorw("failed to fetch pending tasks", "error", err)
		return
	}

	if len(pendingTasks) == 0 {
		return
	}
	deps.Log.Infow("processing pending tasks", "count", len(pendingTasks))

	for _, task := range pendingTasks {
		if ctx.Err() != nil {
			return
		}
		executeTask(ctx, deps, task, 1)
	}
}

func executeTask(ctx context.Context, deps *tasks.Deps, task models.ScheduledTask, curAttempt int) {
	deps.Log.Infow("processing task", "task_name", task.TaskName, "task_id", task.ID, "attempt", curAttempt)

	if task.Arguments == nil {
		task.Arguments = make(map[string]interface{})
	}

	handler, found := tasks.GetHandler(task.TaskName)
	if !found {
		deps.Log.Errorw("task handler not found", "task_name", task.TaskName)

		now := time.Now()
		deps.DB.Model(&task).Updates(map[string]interface{}{
			"status":   models.ScheduledTaskStatusFailure,
			"last_run": &now,
		})
		deps.DB.Create(&models.ScheduledTaskHistory{
			ScheduledTaskID: task.ID,
			TaskName:        task.TaskName,
			RunAt:           now,
			Status:          "handler_not_found",
			AttemptNumber:   curAttempt,
			Arguments:       task.Arguments,
			Result:          map[string]interface{}{"error": "handler not found"},
		})
		return
	}

	// Execute task
	startTime := time.Now()
	result, err := handler(ctx, deps, task)
	runtimeMs := int(time.Since(startTime).Milliseconds())

	status := "success"
	var resultData map[string]interface{}
	if err != nil {
		status = "failure"
		resultData = map[string]interface{}{"error": err.Error()}
		deps.Log.Errorw("task failed", "task_name", task.TaskName, "task_id", task.ID, "error", err)
	} else {
		resultData = result
		deps.Log.Infow("task completed", "task_name", task.TaskName, "task_id", task.ID, "runtime_ms", runtimeMs)
	}

	// Create History
	deps.DB.Create(&models.ScheduledTaskHistory{
		ScheduledTaskID: task.ID,
		TaskName:        task.TaskName,
		RunAt:           startTime,
		RuntimeMs:       runtimeMs,
		Status:          status,
		AttemptNumber:   curAttempt,
		Arguments:       task.Arguments,
		Result:          resultData,
	})

	// Update ScheduledTask
	taskUpdates := map[string]interface{}{
		"last_run": &startTime,
	}

	if status != "success" {
		if curAttempt < task.MaxAttempt {
			executeTask(ctx, deps, task, curAttempt+1)
			return
		}
		taskUpdates["status"] = models.ScheduledTaskStatusFailure
	} else {
		switch task.TaskType {
		case models.ScheduledTaskTypeOneTime:
			taskUpdates["status"] = models.ScheduledTaskStatusDone
		case models.ScheduledTaskTypeRecurring:
			nextDue := task.NextDue()
			// Only reschedule when the rule yields a future occurrence,
			// otherwise the task would fire again on the next tick.
			if nextDue.After(task.Due) {
				taskUpdates["status"] = models.ScheduledTaskStatusActive
				taskUpdates["due"] = nextDue
			} else {
				taskUpdates["status"] = models.ScheduledTaskStatusDone
			}
		}
	}

	deps.DB.Model(&task).Updates(taskUpdates)
}
