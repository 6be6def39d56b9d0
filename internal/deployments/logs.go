package deployments

import (
	"fmt"

	"github.com/kubenetlabs/mlops-console/pkg/types"
)

// NoLogsMessage is the transcript of a deployment that is neither Running
// nor Failed.
const NoLogsMessage = "No logs available."

// Transcript returns the canned log lines shown for d while using mock
// data. The result depends only on d.
func Transcript(d types.Deployment) []string {
	switch d.Status {
	case types.StatusRunning:
		return []string{
			fmt.Sprintf("[2023-05-01 10:31:15] INFO: Starting model server for %s", d.Framework),
			fmt.Sprintf("[2023-05-01 10:31:16] INFO: Loading model from %s", d.ModelURI),
			"[2023-05-01 10:31:20] INFO: Model loaded successfully",
			"[2023-05-01 10:31:21] INFO: Starting HTTP server at port 8080",
			"[2023-05-01 10:31:22] INFO: Server started successfully",
			"[2023-05-01 10:35:45] INFO: Received inference request",
			"[2023-05-01 10:35:45] INFO: Processing batch of 10 instances",
			"[2023-05-01 10:35:46] INFO: Request processed successfully (0.254s)",
		}
	case types.StatusFailed:
		return []string{
			fmt.Sprintf("[2023-04-01 14:11:15] INFO: Starting model server for %s", d.Framework),
			fmt.Sprintf("[2023-04-01 14:11:16] INFO: Loading model from %s", d.ModelURI),
			fmt.Sprintf("[2023-04-01 14:11:30] ERROR: Failed to allocate resources: %s", d.Error),
			"[2023-04-01 14:11:31] ERROR: Container startup failed",
			fmt.Sprintf("[2023-04-01 14:11:32] ERROR: Deployment failed with status code 500: %s", d.Error),
		}
	default:
		return []string{NoLogsMessage}
	}
}
