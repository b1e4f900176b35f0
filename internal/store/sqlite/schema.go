package sqlite

// Timestamps are INTEGER unix nanoseconds (UTC) so ordering and range
// comparisons stay numeric.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS user_profiles (
    user_id            TEXT PRIMARY KEY,
    display_name       TEXT NOT NULL DEFAULT '',
    health             TEXT NOT NULL DEFAULT '{}',
    preferences        TEXT NOT NULL DEFAULT '{}',
    created_at         INTEGER NOT NULL,
    updated_at         INTEGER NOT NULL,
    context_touched_at INTEGER
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
    details     TEXT NOT NULL DEFAULT '{}',
    started_at  INTEGER,
    ended_at    INTEGER,
    occurred_at INTEGER NOT NULL,
    logged_at   INTEGER NOT NULL,
    source      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS activities_user_occurred_idx ON activities (user_id, occurred_at);
CREATE INDEX IF NOT EXISTS activities_user_logged_idx ON activities (user_id, logged_at);

CREATE TABLE IF NOT EXISTS goals (
    goal_id          TEXT PRIMARY KEY,
    user_id          TEXT NOT NULL,
    goal_type        TEXT NOT NULL,
    target           REAL NOT NULL,
    unit             TEXT NOT NULL DEFAULT '',
    current_progress REAL NOT NULL DEFAULT 0,
    status           TEXT NOT NULL,
    milestone        TEXT NOT NULL DEFAULT '',
    agent_adjustable INTEGER NOT NULL DEFAULT 1,
    created_by       TEXT NOT NULL,
    provenance       TEXT,
    created_at       INTEGER NOT NULL,
    updated_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS goals_user_idx ON goals (user_id, created_at);

CREATE TABLE IF NOT EXISTS streaks (
    user_id            TEXT NOT NULL,
    streak_type        TEXT NOT NULL,
    streak_count       INTEGER NOT NULL,
    max_count          INTEGER NOT NULL,
    last_activity_date TEXT NOT NULL,
    last_activity_at   INTEGER NOT NULL,
    updated_at         INTEGER NOT NULL,
    PRIMARY KEY (user_id, streak_type)
);

CREATE TABLE IF NOT EXISTS memory_records (
    record_id  TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL,
    category   TEXT NOT NULL,
    text       TEXT NOT NULL,
    vector     BLOB,
    source_id  TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS memory_records_user_idx ON memory_records (user_id, created_at);

CREATE TABLE IF NOT EXISTS conversation_turns (
    turn_id    TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL,
    message    TEXT NOT NULL,
    response   TEXT NOT NULL,
    actions    TEXT NOT NULL DEFAULT '[]',
    client_ts  INTEGER,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS conversation_turns_user_idx ON conversation_turns (user_id, created_at);

CREATE TABLE IF NOT EXISTS daily_summaries (
    user_id           TEXT NOT NULL,
    summary_date      TEXT NOT NULL,
    activity_count    INTEGER NOT NULL,
    workout_count     INTEGER NOT NULL,
    exercise_minutes  REAL NOT NULL,
    distance_km       REAL NOT NULL,
    steps             INTEGER NOT NULL,
    calories_burned   REAL NOT NULL,
    calories_consumed REAL NOT NULL,
    hydration_ml      REAL NOT NULL,
    sleep_hours       REAL NOT NULL,
    updated_at        INTEGER NOT NULL,
    PRIMARY KEY (user_id, summary_date)
);

CREATE TABLE IF NOT EXISTS outbox (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    op              TEXT NOT NULL,
    aggregate_id    TEXT NOT NULL,
    payload         BLOB NOT NULL,
    status          TEXT NOT NULL DEFAULT 'pending',
    attempt_count   INTEGER NOT NULL DEFAULT 0,
    next_attempt_at INTEGER NOT NULL,
    leased_until    INTEGER,
    last_error      TEXT,
    created_at      INTEGER NOT NULL,
    updated_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS outbox_ready_idx ON outbox (status, next_attempt_at);
`
