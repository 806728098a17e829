package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestStoreMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"DBQueryTotal", DBQueryTotal},
		{"DBQueryDuration", DBQueryDuration},
		{"DBTransactionDuration", DBTransactionDuration},
		{"DBRowsAffected", DBRowsAffected},
		{"DBConnectionsOpen", DBConnectionsOpen},
		{"DBSizeBytes", DBSizeBytes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestScanMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"ScanRunsTotal", ScanRunsTotal},
		{"ScanIsRunning", ScanIsRunning},
		{"ScanLastRunTimestamp", ScanLastRunTimestamp},
		{"ScanLastRunDuration", ScanLastRunDuration},
		{"ScanFilesTotal", ScanFilesTotal},
		{"ScanBatchesCommitted", ScanBatchesCommitted},
		{"ScanErrors", ScanErrors},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestExtractionMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"ExtractionsTotal", ExtractionsTotal},
		{"ExtractionDuration", ExtractionDuration},
		{"ExtractionWorkers", ExtractionWorkers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestFilesystemMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"FilesystemRetryAttempts", FilesystemRetryAttempts},
		{"FilesystemRetrySuccess", FilesystemRetrySuccess},
		{"FilesystemRetryFailures", FilesystemRetryFailures},
		{"FilesystemRetryDuration", FilesystemRetryDuration},
		{"FilesystemStaleErrors", FilesystemStaleErrors},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestLibraryMetricOperations(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("library metric operations panicked: %v", r)
		}
	}()

	LibraryProjects.Set(3)
	LibraryFolders.Set(42)
	LibraryMedia.WithLabelValues("photo").Set(100)
	LibraryMedia.WithLabelValues("video").Set(25)
	LibraryTags.Set(9)
}

func TestScanMetricOperations(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("scan metric operations panicked: %v", r)
		}
	}()

	ScanRunsTotal.WithLabelValues("completed").Inc()
	ScanRunsTotal.WithLabelValues("cancelled").Inc()
	ScanRunsTotal.WithLabelValues("failed").Inc()
	ScanFilesTotal.WithLabelValues("indexed").Add(10)
	ScanFilesTotal.WithLabelValues("skipped").Add(5)
	ScanFilesTotal.WithLabelValues("failed").Inc()
	ScanFilesTotal.WithLabelValues("timeout").Inc()
	ScanIsRunning.Inc()
	ScanIsRunning.Dec()
	ScanBatchesCommitted.Inc()
}

func TestExtractionMetricOperations(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("extraction metric operations panicked: %v", r)
		}
	}()

	ExtractionsTotal.WithLabelValues("ok").Inc()
	ExtractionsTotal.WithLabelValues("failed").Inc()
	ExtractionsTotal.WithLabelValues("timeout").Inc()
	ExtractionDuration.Observe(0.05)
	ExtractionWorkers.Set(8)
}

func TestInitializeMetricsIsIdempotent(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("InitializeMetrics panicked: %v", r)
		}
	}()

	InitializeMetrics()
	InitializeMetrics()
}

func TestQueryLabelsArePrePopulated(t *testing.T) {
	InitializeMetrics()

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	operations := make(map[string]bool)
	for _, mf := range families {
		if mf.GetName() != "media_index_db_queries_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "operation" {
					operations[label.GetValue()] = true
				}
			}
		}
	}

	// Every tag query records one of these; an operation exported here but
	// never recorded anywhere would be a dead series.
	for _, want := range []string{"media_by_tag", "remove_tag", "delete_tag", "tags_for", "project_tags"} {
		if !operations[want] {
			t.Errorf("operation label %q not exported", want)
		}
	}
	if operations["assign_tag"] {
		t.Error("operation label \"assign_tag\" exported but no query records it")
	}
}

func TestMetricsConcurrentAccess(t *testing.T) {
	// Metrics must tolerate concurrent updates from scan workers
	done := make(chan bool, 10)

	for i := 0; i < 10; i++ {
		go func(id int) {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Goroutine %d panicked: %v", id, r)
				}
				done <- true
			}()

			DBQueryTotal.WithLabelValues("select", "success").Inc()
			ScanFilesTotal.WithLabelValues("indexed").Inc()
			ExtractionsTotal.WithLabelValues("ok").Inc()
			FilesystemRetryAttempts.WithLabelValues("stat", "media").Inc()
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}
