package sqlite

const schema = `
-- Raw story signal rows, one JSON payload per story.
-- The engine treats this as a key-value store queried by org + project.
CREATE TABLE IF NOT EXISTS story_signals (
    org_id TEXT NOT NULL,
    project_id TEXT NOT NULL,
    story_id TEXT NOT NULL,
    payload TEXT NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (org_id, story_id)
);

CREATE INDEX IF NOT EXISTS idx_story_signals_project ON story_signals(org_id, project_id);

-- Manual signal overrides, keyed per framework
CREATE TABLE IF NOT EXISTS manual_overrides (
    org_id TEXT NOT NULL,
    project_id TEXT NOT NULL,
    story_id TEXT NOT NULL,
    framework TEXT NOT NULL,
    payload TEXT NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (org_id, story_id, framework)
);

CREATE INDEX IF NOT EXISTS idx_manual_overrides_project ON manual_overrides(org_id, project_id, framework);

-- Score records: one row per (org, story, framework).
-- manual_fields names the override-protected columns; the automatic
-- write path must leave those untouched.
CREATE TABLE IF NOT EXISTS score_records (
    org_id TEXT NOT NULL,
    story_id TEXT NOT NULL,
    framework TEXT NOT NULL,
    project_id TEXT NOT NULL DEFAULT '',
    score REAL,
    category TEXT,
    rank INTEGER NOT NULL DEFAULT 0,
    unscoreable INTEGER NOT NULL DEFAULT 0,
    unscoreable_reason TEXT NOT NULL DEFAULT '',
    heuristic_derived INTEGER NOT NULL DEFAULT 0,
    is_manual_override INTEGER NOT NULL DEFAULT 0,
    manual_fields TEXT NOT NULL DEFAULT '[]',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (org_id, story_id, framework)
);

CREATE INDEX IF NOT EXISTS idx_score_records_story ON score_records(org_id, story_id);

-- Analysis reports are immutable; insert-only
CREATE TABLE IF NOT EXISTS analysis_reports (
    org_id TEXT NOT NULL,
    report_id TEXT NOT NULL,
    project_id TEXT NOT NULL,
    framework TEXT NOT NULL,
    payload TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (org_id, report_id)
);

CREATE INDEX IF NOT EXISTS idx_analysis_reports_project ON analysis_reports(org_id, project_id);
`
