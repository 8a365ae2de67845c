package timescaledb

const createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS timescaledb CASCADE;`

const createTableSQL = `
CREATE TABLE IF NOT EXISTS profile_runs (
    id uuid NOT NULL,
    deployment text NOT NULL,
    created_at timestamp WITH TIME ZONE NOT NULL,
    samples integer NOT NULL,
    params jsonb NOT NULL,
    segments jsonb NOT NULL,
    PRIMARY KEY (id, created_at)
);`

const createHypertableSQL = `SELECT create_hypertable('profile_runs', 'created_at', if_not_exists => TRUE);`

const createDeploymentIndexSQL = `CREATE INDEX IF NOT EXISTS profile_runs_deployment_idx ON profile_runs (deployment, created_at DESC);`

// createSegmentCountsViewSQL exposes one row per run with its segment count, for dashboards
const createSegmentCountsViewSQL = `
CREATE OR REPLACE VIEW profile_run_counts AS
SELECT id, deployment, created_at, samples, jsonb_array_length(segments) AS profiles
FROM profile_runs;`
