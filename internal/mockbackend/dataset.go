package mockbackend

import (
	"time"

	"github.com/kubenetlabs/mlops-console/pkg/types"
)

const day = 24 * time.Hour

// DefaultPipelineID is the pipeline whose graph is served when none is requested.
const DefaultPipelineID = "pipe-2"

// Dataset is the canned content of every mock endpoint. Timestamps are
// relative to the instant the dataset was built.
type Dataset struct {
	Experiments     []types.Experiment
	TrackingRuns    []types.TrackingRun
	Models          []types.RegisteredModel
	Pipelines       []types.Pipeline
	PipelineRuns    []types.PipelineRun
	Graph           types.PipelineGraphData
	Deployments     []types.Deployment
	ServingRuntimes []types.ServingRuntime
}

func millis(t time.Time) int64 { return t.UnixMilli() }

func timePtr(t time.Time) *time.Time { return &t }

// NewDataset builds the canned dataset anchored at now.
func NewDataset(now time.Time) *Dataset {
	ago := func(d time.Duration) time.Time { return now.Add(-d) }

	return &Dataset{
		Experiments: []types.Experiment{
			{
				ExperimentID:     "1",
				Name:             "Bank Customer Churn Prediction",
				ArtifactLocation: "mlflow-artifacts:/1",
				LifecycleStage:   "active",
				CreationTime:     millis(ago(10 * day)),
				LastUpdateTime:   millis(ago(2 * day)),
				Tags:             map[string]string{"project": "banking", "team": "data-science"},
			},
			{
				ExperimentID:     "2",
				Name:             "Credit Risk Assessment",
				ArtifactLocation: "mlflow-artifacts:/2",
				LifecycleStage:   "active",
				CreationTime:     millis(ago(5 * day)),
				LastUpdateTime:   millis(ago(1 * day)),
				Tags:             map[string]string{"project": "risk", "team": "risk-analytics"},
			},
			{
				ExperimentID:     "3",
				Name:             "Customer Segmentation",
				ArtifactLocation: "mlflow-artifacts:/3",
				LifecycleStage:   "active",
				CreationTime:     millis(ago(3 * day)),
				LastUpdateTime:   millis(now),
				Tags:             map[string]string{"project": "marketing", "team": "data-science"},
			},
		},
		TrackingRuns: []types.TrackingRun{
			{
				RunID:        "run1",
				ExperimentID: "1",
				Status:       "FINISHED",
				StartTime:    millis(ago(2*day + time.Hour)),
				EndTime:      millis(ago(2 * day)),
				Metrics:      map[string]float64{"accuracy": 0.92, "precision": 0.89, "recall": 0.94, "f1": 0.91},
				Params:       map[string]string{"model_type": "RandomForest", "n_estimators": "100", "max_depth": "10"},
				Tags:         map[string]string{"version": "v1.0", "author": "data-scientist-1"},
			},
			{
				RunID:        "run2",
				ExperimentID: "1",
				Status:       "FINISHED",
				StartTime:    millis(ago(day + 2*time.Hour)),
				EndTime:      millis(ago(day)),
				Metrics:      map[string]float64{"accuracy": 0.94, "precision": 0.92, "recall": 0.95, "f1": 0.93},
				Params:       map[string]string{"model_type": "GradientBoosting", "n_estimators": "150", "learning_rate": "0.1"},
				Tags:         map[string]string{"version": "v1.1", "author": "data-scientist-2"},
			},
			{
				RunID:        "run3",
				ExperimentID: "2",
				Status:       "RUNNING",
				StartTime:    millis(ago(5 * time.Hour)),
				Metrics:      map[string]float64{"auc": 0.88, "accuracy": 0.91},
				Params:       map[string]string{"model_type": "XGBoost", "n_estimators": "200", "learning_rate": "0.05"},
				Tags:         map[string]string{"version": "v0.9", "author": "data-scientist-3"},
			},
		},
		Models: []types.RegisteredModel{
			{
				Name:                 "churn-prediction",
				CreationTimestamp:    millis(ago(10 * day)),
				LastUpdatedTimestamp: millis(ago(day)),
				LatestVersions: []types.ModelVersion{
					{
						Name:              "churn-prediction",
						Version:           "1",
						CreationTimestamp: millis(ago(10 * day)),
						Status:            "Production",
						Source:            "s3://mlflow-models/churn-prediction/1",
						RunID:             "run1",
					},
					{
						Name:              "churn-prediction",
						Version:           "2",
						CreationTimestamp: millis(ago(2 * day)),
						Status:            "Staging",
						Source:            "s3://mlflow-models/churn-prediction/2",
						RunID:             "run2",
					},
				},
			},
			{
				Name:                 "credit-risk",
				CreationTimestamp:    millis(ago(5 * day)),
				LastUpdatedTimestamp: millis(ago(12 * time.Hour)),
				LatestVersions: []types.ModelVersion{
					{
						Name:              "credit-risk",
						Version:           "1",
						CreationTimestamp: millis(ago(5 * day)),
						Status:            "Production",
						Source:            "s3://mlflow-models/credit-risk/1",
						RunID:             "run3",
					},
				},
			},
		},
		Pipelines: []types.Pipeline{
			{ID: "pipe-1", Name: "Bank Churn Pipeline", Description: "Data processing and model training for bank churn prediction", CreatedAt: ago(15 * day)},
			{ID: "pipe-2", Name: "Credit Risk Pipeline", Description: "End-to-end pipeline for credit risk assessment", CreatedAt: ago(7 * day)},
			{ID: "pipe-3", Name: "Customer Segmentation Pipeline", Description: "Customer clustering and segmentation analysis", CreatedAt: ago(3 * day)},
		},
		PipelineRuns: []types.PipelineRun{
			{
				RunID:      "run-001",
				PipelineID: "pipe-1",
				RunName:    "Bank Churn Pipeline Run #1",
				Status:     "Completed",
				StartTime:  ago(14 * day),
				EndTime:    timePtr(ago(14*day - 2*time.Hour - 10*time.Minute)),
				Duration:   "2h 10m",
				Metrics:    map[string]string{"accuracy": "0.91", "data_processed": "10,000 records"},
			},
			{
				RunID:      "run-002",
				PipelineID: "pipe-1",
				RunName:    "Bank Churn Pipeline Run #2",
				Status:     "Completed",
				StartTime:  ago(7 * day),
				EndTime:    timePtr(ago(7*day - 2*time.Hour - 5*time.Minute)),
				Duration:   "2h 5m",
				Metrics:    map[string]string{"accuracy": "0.93", "data_processed": "12,000 records"},
			},
			{
				RunID:      "run-003",
				PipelineID: "pipe-2",
				RunName:    "Credit Risk Pipeline Run #1",
				Status:     "Running",
				StartTime:  ago(5 * time.Hour),
				Duration:   "5h+",
				Metrics:    map[string]string{"progress": "80%"},
			},
			{
				RunID:      "run-004",
				PipelineID: "pipe-3",
				RunName:    "Customer Segmentation Run #1",
				Status:     "Failed",
				StartTime:  ago(2 * day),
				EndTime:    timePtr(ago(2*day - time.Hour - 12*time.Minute)),
				Duration:   "1h 12m",
				Error:      "Resource quota exceeded during model training",
				Metrics:    map[string]string{"progress": "65%"},
			},
		},
		Graph: types.PipelineGraphData{
			Nodes: []types.PipelineStep{
				{ID: "node-1", Name: "Data Loading", Type: "DataIO", Status: "Completed"},
				{ID: "node-2", Name: "Data Validation", Type: "DataValidation", Status: "Completed"},
				{ID: "node-3", Name: "Feature Engineering", Type: "FeatureExtraction", Status: "Completed"},
				{ID: "node-4", Name: "Model Training", Type: "ModelTraining", Status: "Running"},
				{ID: "node-5", Name: "Model Evaluation", Type: "ModelEvaluation", Status: "Waiting"},
				{ID: "node-6", Name: "Model Deployment", Type: "ModelDeployment", Status: "Waiting"},
			},
			Edges: []types.PipelineDependency{
				{Source: "node-1", Target: "node-2"},
				{Source: "node-2", Target: "node-3"},
				{Source: "node-3", Target: "node-4"},
				{Source: "node-4", Target: "node-5"},
				{Source: "node-5", Target: "node-6"},
			},
		},
		Deployments: []types.Deployment{
			{
				Name:      "churn-model",
				Namespace: "bankchurn-kserve-2",
				Created:   ago(5 * day),
				ModelURI:  "s3://mlflow-models/churn-prediction/1",
				Framework: types.FrameworkTensorFlow,
				Version:   "v1",
				Status:    types.StatusRunning,
				Endpoint:  "http://churn-model.bankchurn-kserve-2.example.com/v1/models/churn-model",
				Replicas:  2,
				Resources: types.Resources{CPU: "1", Memory: "2Gi"},
				Traffic:   100,
			},
			{
				Name:      "credit-risk-model",
				Namespace: "bankchurn-kserve-2",
				Created:   ago(2 * day),
				ModelURI:  "s3://mlflow-models/credit-risk/1",
				Framework: types.FrameworkSKLearn,
				Version:   "v1",
				Status:    types.StatusRunning,
				Endpoint:  "http://credit-risk-model.bankchurn-kserve-2.example.com/v1/models/credit-risk-model",
				Replicas:  1,
				Resources: types.Resources{CPU: "500m", Memory: "1Gi"},
				Traffic:   100,
			},
			{
				Name:      "customer-segmentation",
				Namespace: "default",
				Created:   ago(12 * time.Hour),
				ModelURI:  "s3://mlflow-models/segmentation/1",
				Framework: types.FrameworkPyTorch,
				Version:   "v1",
				Status:    types.StatusFailed,
				Replicas:  1,
				Resources: types.Resources{CPU: "2", Memory: "4Gi"},
				Traffic:   100,
				Error:     "Image pull backoff: failed to pull image pytorch:latest",
			},
		},
		ServingRuntimes: []types.ServingRuntime{
			runtime("sklearn-runtime", "sklearn"),
			runtime("tensorflow-runtime", "tensorflow"),
			runtime("pytorch-runtime", "pytorch"),
			runtime("xgboost-runtime", "xgboost"),
		},
	}
}

func runtime(name, framework string) types.ServingRuntime {
	return types.ServingRuntime{
		Name:      name,
		Namespace: "kserve-system",
		Framework: framework,
		Version:   "v1",
		Status:    types.RuntimeAvailable,
		Scope:     types.ScopeNamespaced,
	}
}
