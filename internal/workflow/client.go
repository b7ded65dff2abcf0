package workflow

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

// TaskQueue is the default task queue for the artist ETL.
const TaskQueue = "artist-etl"

// Dial connects to a Temporal frontend.
func Dial(hostPort, namespace string) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  hostPort,
		Namespace: namespace,
	})
	if err != nil {
		return nil, eris.Wrap(err, "workflow: dial temporal")
	}
	return c, nil
}

// NewWorker registers the workflow and activities on queue.
func NewWorker(c client.Client, queue string, acts *Activities) worker.Worker {
	if queue == "" {
		queue = TaskQueue
	}
	w := worker.New(c, queue, worker.Options{})
	w.RegisterWorkflow(ArtistETL)
	w.RegisterActivity(acts)
	return w
}

// Start begins a new ArtistETL execution.
func Start(ctx context.Context, c client.Client, queue string, in Input) (client.WorkflowRun, error) {
	if queue == "" {
		queue = TaskQueue
	}
	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "artist-etl-" + uuid.NewString(),
		TaskQueue: queue,
	}, ArtistETL, in)
	if err != nil {
		return nil, eris.Wrap(err, "workflow: start")
	}
	return run, nil
}
