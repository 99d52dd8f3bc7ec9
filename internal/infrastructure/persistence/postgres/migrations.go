// Package postgres implements the PostgreSQL persistence layer for Studygotchi Hub.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE USERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create users table
-- Version: 001

CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email VARCHAR(254) NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    display_name VARCHAR(30) NOT NULL,
    role VARCHAR(10) NOT NULL DEFAULT 'student',
    gems INTEGER NOT NULL DEFAULT 100,
    revive_potions INTEGER NOT NULL DEFAULT 0,
    cheat_sheets INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_role CHECK (role IN ('student', 'teacher')),
    CONSTRAINT valid_gems CHECK (gems >= 0),
    CONSTRAINT valid_items CHECK (revive_potions >= 0 AND cheat_sheets >= 0)
);

CREATE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));
CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);
`

const migration001Down = `
DROP TABLE IF EXISTS users;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE PETS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create pets table
-- Version: 002
-- Vital stats are stored as checkpoints (value + timestamp); live values
-- are derived in the domain layer from elapsed time.

CREATE TABLE IF NOT EXISTS pets (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    name VARCHAR(10) NOT NULL,
    level INTEGER NOT NULL DEFAULT 1,
    experience INTEGER NOT NULL DEFAULT 0,
    intelligence INTEGER NOT NULL DEFAULT 10,
    hunger INTEGER NOT NULL DEFAULT 100,
    nutrition JSONB NOT NULL DEFAULT '{
        "carbs": 50, "protein": 50, "fat": 50, "vitamin": 50, "mineral": 50
    }'::jsonb,
    is_dead BOOLEAN NOT NULL DEFAULT FALSE,
    last_fed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    last_studied_at TIMESTAMP WITH TIME ZONE,
    last_played_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    last_chatted_at TIMESTAMP WITH TIME ZONE,
    died_at TIMESTAMP WITH TIME ZONE,
    food_inventory JSONB NOT NULL DEFAULT '{"rice": 3, "apple": 2, "milk": 2}'::jsonb,
    points INTEGER NOT NULL DEFAULT 30,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    -- One pet per user
    CONSTRAINT uq_pets_user UNIQUE (user_id),
    CONSTRAINT valid_level CHECK (level >= 1),
    CONSTRAINT valid_experience CHECK (experience >= 0),
    CONSTRAINT valid_intelligence CHECK (intelligence >= 0 AND intelligence <= 200),
    CONSTRAINT valid_hunger CHECK (hunger >= 0 AND hunger <= 100),
    CONSTRAINT valid_points CHECK (points >= 0)
);

CREATE INDEX IF NOT EXISTS idx_pets_user_id ON pets(user_id);
CREATE INDEX IF NOT EXISTS idx_pets_experience ON pets(experience DESC);
CREATE INDEX IF NOT EXISTS idx_pets_alive ON pets(updated_at) WHERE is_dead = FALSE;
CREATE INDEX IF NOT EXISTS idx_pets_level ON pets(level);
`

const migration002Down = `
DROP TABLE IF EXISTS pets;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE STUDY LOGS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create study_logs table
-- Version: 003
-- Append-only note window; the application keeps at most 20 per user.

CREATE TABLE IF NOT EXISTS study_logs (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    pet_id UUID NOT NULL REFERENCES pets(id) ON DELETE CASCADE,
    content VARCHAR(100) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_study_logs_user_created ON study_logs(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_study_logs_pet_id ON study_logs(pet_id);
`

const migration003Down = `
DROP TABLE IF EXISTS study_logs;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: CREATE EXAMS
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
-- Migration: Create exams and exam_results tables
-- Version: 004

CREATE TABLE IF NOT EXISTS exams (
    id BIGSERIAL PRIMARY KEY,
    room_id UUID,
    author_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    question TEXT NOT NULL,
    model_answer TEXT NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_exams_active_global ON exams(created_at DESC)
    WHERE is_active = TRUE AND room_id IS NULL;
CREATE INDEX IF NOT EXISTS idx_exams_room ON exams(room_id) WHERE room_id IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_exams_author ON exams(author_id);

CREATE TABLE IF NOT EXISTS exam_results (
    id BIGSERIAL PRIMARY KEY,
    exam_id BIGINT NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    pet_answer TEXT NOT NULL,
    is_correct BOOLEAN NOT NULL,
    score INTEGER NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    -- One attempt per exam per user
    CONSTRAINT uq_exam_results_attempt UNIQUE (exam_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_exam_results_user ON exam_results(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_exam_results_exam ON exam_results(exam_id);
`

const migration004Down = `
DROP TABLE IF EXISTS exam_results;
DROP TABLE IF EXISTS exams;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 005: CREATE ORDERS
// ══════════════════════════════════════════════════════════════════════════════

const migration005Up = `
-- Migration: Create payment orders table
-- Version: 005

CREATE TABLE IF NOT EXISTS orders (
    order_id VARCHAR(64) PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    amount BIGINT NOT NULL,
    status VARCHAR(10) NOT NULL DEFAULT 'READY',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_status CHECK (status IN ('READY', 'DONE', 'CANCELED')),
    CONSTRAINT valid_amount CHECK (amount > 0)
);

CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_orders_stale_ready ON orders(created_at) WHERE status = 'READY';
`

const migration005Down = `
DROP TABLE IF EXISTS orders;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 006: CREATE CLASSROOMS
// ══════════════════════════════════════════════════════════════════════════════

const migration006Up = `
-- Migration: Create classrooms and classroom_members tables
-- Version: 006

CREATE TABLE IF NOT EXISTS classrooms (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name VARCHAR(50) NOT NULL,
    teacher_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    code VARCHAR(6) NOT NULL UNIQUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_classrooms_teacher ON classrooms(teacher_id);
CREATE INDEX IF NOT EXISTS idx_classrooms_code ON classrooms(code);

CREATE TABLE IF NOT EXISTS classroom_members (
    classroom_id UUID NOT NULL REFERENCES classrooms(id) ON DELETE CASCADE,
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    joined_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (classroom_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_classroom_members_user ON classroom_members(user_id);
`

const migration006Down = `
DROP TABLE IF EXISTS classroom_members;
DROP TABLE IF EXISTS classrooms;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 007: CREATE LEADERBOARD
// ══════════════════════════════════════════════════════════════════════════════

const migration007Up = `
-- Migration: Create leaderboard snapshot and rank history tables
-- Version: 007
-- The hot ranking lives in Redis; Postgres keeps periodic snapshots
--(cold fallback + rank-change diffs) and per-pet rank history.

CREATE TABLE IF NOT EXISTS leaderboard_snapshots (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    scope VARCHAR(50) NOT NULL,
    entries JSONB NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_snapshots_scope_created ON leaderboard_snapshots(scope, created_at DESC);

CREATE TABLE IF NOT EXISTS rank_history (
    id BIGSERIAL PRIMARY KEY,
    pet_id UUID NOT NULL,
    scope VARCHAR(50) NOT NULL,
    rank INTEGER NOT NULL,
    experience INTEGER NOT NULL,
    recorded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_rank_history_pet ON rank_history(pet_id, scope, recorded_at DESC);
`

const migration007Down = `
DROP TABLE IF EXISTS rank_history;
DROP TABLE IF EXISTS leaderboard_snapshots;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 008: ADD PET PERSONALITY
// Later additions to pets. The pet insert fallback ladder exists for
// databases where this migration has not run yet.
// ══════════════════════════════════════════════════════════════════════════════

const migration008Up = `
-- Migration: Add appearance and personality columns to pets
-- Version: 008

ALTER TABLE pets ADD COLUMN IF NOT EXISTS character_sprite VARCHAR(30) NOT NULL DEFAULT 'rabbit';
ALTER TABLE pets ADD COLUMN IF NOT EXISTS room_type VARCHAR(20) NOT NULL DEFAULT 'bedroom';
ALTER TABLE pets ADD COLUMN IF NOT EXISTS mbti VARCHAR(4);
`

const migration008Down = `
ALTER TABLE pets DROP COLUMN IF EXISTS mbti;
ALTER TABLE pets DROP COLUMN IF EXISTS room_type;
ALTER TABLE pets DROP COLUMN IF EXISTS character_sprite;
`
