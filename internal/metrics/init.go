package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	// --- Store query operations ---
	for _, op := range []string{"initialize_schema", "create_project", "delete_project",
		"get_project", "list_projects", "upsert_folder", "folder_tree",
		"bulk_upsert_media", "media_index", "media_by_folder", "media_by_date",
		"media_by_tag", "remove_tag", "delete_tag", "tags_for", "project_tags",
		"folder_counts", "date_counts", "vacuum"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, outcome := range []string{"commit", "rollback"} {
		DBTransactionDuration.WithLabelValues(outcome)
	}

	for _, op := range []string{"bulk_upsert_media", "delete_project", "reconcile_media"} {
		DBRowsAffected.WithLabelValues(op)
	}

	// --- Scan outcomes ---
	for _, state := range []string{"completed", "cancelled", "failed"} {
		ScanRunsTotal.WithLabelValues(state)
	}
	for _, outcome := range []string{"indexed", "skipped", "failed", "timeout"} {
		ScanFilesTotal.WithLabelValues(outcome)
	}

	// --- Extraction outcomes ---
	for _, outcome := range []string{"ok", "failed", "timeout"} {
		ExtractionsTotal.WithLabelValues(outcome)
	}

	// --- Library gauges ---
	for _, kind := range []string{"photo", "video"} {
		LibraryMedia.WithLabelValues(kind)
	}
}
