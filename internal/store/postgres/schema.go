package postgres

// schemaSQL is applied by Migrate. Statements are idempotent.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS user_profiles (
    user_id            TEXT PRIMARY KEY,
    display_name       TEXT NOT NULL DEFAULT '',
    health             JSONB NOT NULL DEFAULT '{}'::jsonb,
    preferences        JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at         TIMESTAMPTZ NOT NULL,
    updated_at         TIMESTAMPTZ NOT NULL,
    context_touched_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS messaging_identities (
    platform    TEXT NOT NULL,
    external_id TEXT NOT NULL,
    user_id     TEXT NOT NULL REFERENCES user_profiles(user_id) ON DELETE CASCADE,
    PRIMARY KEY (platform, external_id)
);

CREATE TABLE IF NOT EXISTS activities (
    activity_id TEXT PRIMARY KEY,
    user_id     TEXT NOT NULL,
    category    TEXT NOT NULL,
    name        TEXT NOT NULL,
    details     JSONB NOT NULL DEFAULT '{}'::jsonb,
    started_at  TIMESTAMPTZ,
    ended_at    TIMESTAMPTZ,
    occurred_at TIMESTAMPTZ NOT NULL,
    logged_at   TIMESTAMPTZ NOT NULL,
    source      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS activities_user_occurred_idx ON activities (user_id, occurred_at);
CREATE INDEX IF NOT EXISTS activities_user_logged_idx ON activities (user_id, logged_at DESC);

CREATE TABLE IF NOT EXISTS goals (
    goal_id          TEXT PRIMARY KEY,
    user_id          TEXT NOT NULL,
    goal_type        TEXT NOT NULL,
    target           DOUBLE PRECISION NOT NULL,
    unit             TEXT NOT NULL DEFAULT '',
    current_progress DOUBLE PRECISION NOT NULL DEFAULT 0,
    status           TEXT NOT NULL,
    milestone        TEXT NOT NULL DEFAULT '',
    agent_adjustable BOOLEAN NOT NULL DEFAULT TRUE,
    created_by       TEXT NOT NULL,
    provenance       JSONB,
    created_at       TIMESTAMPTZ NOT NULL,
    updated_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS goals_user_idx ON goals (user_id, created_at);

CREATE TABLE IF NOT EXISTS streaks (
    user_id            TEXT NOT NULL,
    streak_type        TEXT NOT NULL,
    streak_count       INTEGER NOT NULL,
    max_count          INTEGER NOT NULL,
    last_activity_date TEXT NOT NULL,
    last_activity_at   TIMESTAMPTZ NOT NULL,
    updated_at         TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (user_id, streak_type)
);

CREATE TABLE IF NOT EXISTS memory_records (
    record_id  TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL,
    category   TEXT NOT NULL,
    text       TEXT NOT NULL,
    vector     BYTEA,
    source_id  TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS memory_records_user_idx ON memory_records (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS conversation_turns (
    turn_id    TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL,
    message    TEXT NOT NULL,
    response   JSONB NOT NULL,
    actions    JSONB NOT NULL DEFAULT '[]'::jsonb,
    client_ts  TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS conversation_turns_user_idx ON conversation_turns (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS daily_summaries (
    user_id           TEXT NOT NULL,
    summary_date      TEXT NOT NULL,
    activity_count    INTEGER NOT NULL,
    workout_count     INTEGER NOT NULL,
    exercise_minutes  DOUBLE PRECISION NOT NULL,
    distance_km       DOUBLE PRECISION NOT NULL,
    steps             INTEGER NOT NULL,
    calories_burned   DOUBLE PRECISION NOT NULL,
    calories_consumed DOUBLE PRECISION NOT NULL,
    hydration_ml      DOUBLE PRECISION NOT NULL,
    sleep_hours       DOUBLE PRECISION NOT NULL,
    updated_at        TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (user_id, summary_date)
);

CREATE TABLE IF NOT EXISTS outbox (
    id              BIGSERIAL PRIMARY KEY,
    op              TEXT NOT NULL,
    aggregate_id    TEXT NOT NULL,
    payload         JSONB NOT NULL,
    status          TEXT NOT NULL DEFAULT 'pending',
    attempt_count   INTEGER NOT NULL DEFAULT 0,
    next_attempt_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    leased_until    TIMESTAMPTZ,
    last_error      TEXT,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS outbox_ready_idx ON outbox (status, next_attempt_at);
`
