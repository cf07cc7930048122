package postgres

const schema = `
CREATE TABLE IF NOT EXISTS story_signals (
    org_id TEXT NOT NULL,
    project_id TEXT NOT NULL,
    story_id TEXT NOT NULL,
    payload JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (org_id, story_id)
);

CREATE INDEX IF NOT EXISTS idx_story_signals_project ON story_signals(org_id, project_id);

CREATE TABLE IF NOT EXISTS manual_overrides (
    org_id TEXT NOT NULL,
    project_id TEXT NOT NULL,
    story_id TEXT NOT NULL,
    framework TEXT NOT NULL,
    payload JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (org_id, story_id, framework)
);

CREATE INDEX IF NOT EXISTS idx_manual_overrides_project ON manual_overrides(org_id, project_id, framework);

CREATE TABLE IF NOT EXISTS score_records (
    org_id TEXT NOT NULL,
    story_id TEXT NOT NULL,
    framework TEXT NOT NULL,
    project_id TEXT NOT NULL DEFAULT '',
    score DOUBLE PRECISION,
    category TEXT,
    rank INTEGER NOT NULL DEFAULT 0,
    unscoreable BOOLEAN NOT NULL DEFAULT FALSE,
    unscoreable_reason TEXT NOT NULL DEFAULT '',
    heuristic_derived BOOLEAN NOT NULL DEFAULT FALSE,
    is_manual_override BOOLEAN NOT NULL DEFAULT FALSE,
    manual_fields JSONB NOT NULL DEFAULT '[]',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (org_id, story_id, framework)
);

CREATE INDEX IF NOT EXISTS idx_score_records_story ON score_records(org_id, story_id);

CREATE TABLE IF NOT EXISTS analysis_reports (
    org_id TEXT NOT NULL,
    report_id TEXT NOT NULL,
    project_id TEXT NOT NULL,
    framework TEXT NOT NULL,
    payload JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (org_id, report_id)
);

CREATE INDEX IF NOT EXISTS idx_analysis_reports_project ON analysis_reports(org_id, project_id);
`
