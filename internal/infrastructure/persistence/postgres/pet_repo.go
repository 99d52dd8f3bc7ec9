package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// PET REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// PetRepository implements pet.Repository for PostgreSQL.
type PetRepository struct {
	conn *Connection
}

// NewPetRepository creates a new PetRepository.
func NewPetRepository(conn *Connection) *PetRepository {
	return &PetRepository{conn: conn}
}

const petColumns = `id, user_id, name, level, experience, intelligence, hunger,
	   nutrition, is_dead, last_fed_at, last_studied_at, last_played_at,
	   last_chatted_at, died_at, food_inventory, points,
	   character_sprite, room_type, COALESCE(mbti, ''), created_at, updated_at`

// ─────────────────────────────────────────────────────────────────────────────
// CRUD Operations
// ─────────────────────────────────────────────────────────────────────────────

// Create creates a new pet.
// Inserts are attempted against progressively older column sets: databases
// that have not run the personality migration reject the newer columns with
// undefined_column, and the insert retries without them.
func (r *PetRepository) Create(ctx context.Context, p *pet.Pet) error {
	return r.createWith(ctx, r.conn, p)
}


func (r *PetRepository) createWith(ctx context.Context, q Querier, p *pet.Pet) error {
	nutritionJSON, foodJSON, err := marshalPetJSON(p)
	if err != nil {
		return err
	}

	type attempt struct {
		name  string
		query string
		args  []interface{}
	}

	base := []interface{}{
		p.ID, p.UserID, p.Name, int(p.Level), int(p.Experience), int(p.Intelligence),
		p.Hunger, nutritionJSON, p.IsDead,
		p.LastFedAt, nullableTime(p.LastStudiedAt), p.LastPlayedAt,
		nullableTime(p.LastChattedAt), nullableTime(p.DiedAt),
		foodJSON, int(p.Points), p.CreatedAt, p.UpdatedAt,
	}

	attempts := []attempt{
		{
			name: "full",
			query: `
				INSERT INTO pets (
					id, user_id, name, level, experience, intelligence, hunger,
					nutrition, is_dead, last_fed_at, last_studied_at, last_played_at,
					last_chatted_at, died_at, food_inventory, points, created_at, updated_at,
					character_sprite, room_type, mbti
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
			`,
			args: append(append([]interface{}{}, base...),
				string(p.CharacterSprite), string(p.RoomType), string(p.MBTI)),
		},
		{
			name: "no_mbti",
			query: `
				INSERT INTO pets (
					id, user_id, name, level, experience, intelligence, hunger,
					nutrition, is_dead, last_fed_at, last_studied_at, last_played_at,
					last_chatted_at, died_at, food_inventory, points, created_at, updated_at,
					character_sprite, room_type
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
			`,
			args: append(append([]interface{}{}, base...),
				string(p.CharacterSprite), string(p.RoomType)),
		},
		{
			name: "legacy",
			query: `
				INSERT INTO pets (
					id, user_id, name, level, experience, intelligence, hunger,
					nutrition, is_dead, last_fed_at, last_studied_at, last_played_at,
					last_chatted_at, died_at, food_inventory, points, created_at, updated_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
			`,
			args: base,
		},
	}

	var lastErr error
	for _, a := range attempts {
		_, err := q.Exec(ctx, a.query, a.args...)
		if err == nil {
			return nil
		}
		if IsUniqueViolation(err) {
			return shared.ErrPetAlreadyExists
		}
		if !IsUndefinedColumn(err) {
			return fmt.Errorf("failed to create pet: %w", err)
		}
		lastErr = err
	}

	return fmt.Errorf("failed to create pet with any known column set, run migrations: %w", lastErr)
}

// GetByID returns a pet by internal ID.
func (r *PetRepository) GetByID(ctx context.Context, id string) (*pet.Pet, error) {
	query := fmt.Sprintf("SELECT %s FROM pets WHERE id = $1", petColumns)
	row := r.conn.QueryRow(ctx, query, id)
	return r.scanPet(row)
}

// GetByUserID returns the user's pet.
func (r *PetRepository) GetByUserID(ctx context.Context, userID string) (*pet.Pet, error) {
	query := fmt.Sprintf("SELECT %s FROM pets WHERE user_id = $1", petColumns)
	row := r.conn.QueryRow(ctx, query, userID)
	return r.scanPet(row)
}

// Update updates a pet.
func (r *PetRepository) Update(ctx context.Context, p *pet.Pet) error {
	query := `
		UPDATE pets SET
			name = $1,
			level = $2,
			experience = $3,
			intelligence = $4,
			hunger = $5,
			nutrition = $6,
			is_dead = $7,
			last_fed_at = $8,
			last_studied_at = $9,
			last_played_at = $10,
			last_chatted_at = $11,
			died_at = $12,
			food_inventory = $13,
			points = $14,
			updated_at = $15
		WHERE id = $16
	`

	nutritionJSON, foodJSON, err := marshalPetJSON(p)
	if err != nil {
		return err
	}

	result, err := r.conn.Exec(ctx, query,
		p.Name,
		int(p.Level),
		int(p.Experience),
		int(p.Intelligence),
		p.Hunger,
		nutritionJSON,
		p.IsDead,
		p.LastFedAt,
		nullableTime(p.LastStudiedAt),
		p.LastPlayedAt,
		nullableTime(p.LastChattedAt),
		nullableTime(p.DiedAt),
		foodJSON,
		int(p.Points),
		time.Now().UTC(),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update pet: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrPetNotFound
	}

	return nil
}

// Replace atomically swaps the user's pet for a fresh one.
// Study logs reference the old pet with ON DELETE CASCADE, so the
// delete also wipes the owner's note window.
func (r *PetRepository) Replace(ctx context.Context, userID string, fresh *pet.Pet) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM pets WHERE user_id = $1", userID); err != nil {
			return fmt.Errorf("failed to delete old pet: %w", err)
		}
		return r.createWith(ctx, tx, fresh)
	})
}

// Delete deletes a pet.
func (r *PetRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, "DELETE FROM pets WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete pet: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrPetNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Bulk Operations
// ─────────────────────────────────────────────────────────────────────────────

// GetAll returns all pets with pagination.
func (r *PetRepository) GetAll(ctx context.Context, opts pet.ListOptions) ([]*pet.Pet, error) {
	query := fmt.Sprintf("SELECT %s FROM pets", petColumns)
	if !opts.IncludeDead {
		query += " WHERE is_dead = FALSE"
	}
	query += r.buildOrderBy(opts)
	query += " LIMIT $1 OFFSET $2"

	rows, err := r.conn.Query(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query pets: %w", err)
	}
	defer rows.Close()

	return r.scanPets(rows)
}

// GetByIDs returns pets by a list of IDs.
func (r *PetRepository) GetByIDs(ctx context.Context, ids []string) ([]*pet.Pet, error) {
	if len(ids) == 0 {
		return []*pet.Pet{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf("SELECT %s FROM pets WHERE id IN (%s)",
		petColumns, strings.Join(placeholders, ", "))

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pets by ids: %w", err)
	}
	defer rows.Close()

	return r.scanPets(rows)
}

// GetAlive returns living pets (for the background death sweep).
func (r *PetRepository) GetAlive(ctx context.Context, opts pet.ListOptions) ([]*pet.Pet, error) {
	query := fmt.Sprintf("SELECT %s FROM pets WHERE is_dead = FALSE", petColumns)
	query += r.buildOrderBy(opts)
	query += " LIMIT $1 OFFSET $2"

	rows, err := r.conn.Query(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query alive pets: %w", err)
	}
	defer rows.Close()

	return r.scanPets(rows)
}

// Count returns the total number of pets.
func (r *PetRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, "SELECT COUNT(*) FROM pets").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pets: %w", err)
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Search & Filter
// ─────────────────────────────────────────────────────────────────────────────

// FindStale finds living pets with no activity past the threshold.
// "Activity" is any checkpoint write: feeding, studying, playing, chatting.
func (r *PetRepository) FindStale(ctx context.Context, threshold time.Duration) ([]*pet.Pet, error) {
	cutoff := time.Now().UTC().Add(-threshold)

	query := fmt.Sprintf(`
		SELECT %s FROM pets
		WHERE is_dead = FALSE AND updated_at < $1
		ORDER BY updated_at ASC
	`, petColumns)

	rows, err := r.conn.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to find stale pets: %w", err)
	}
	defer rows.Close()

	return r.scanPets(rows)
}

// FindByLevelRange finds pets within the specified level range.
func (r *PetRepository) FindByLevelRange(ctx context.Context, minLevel, maxLevel pet.Level) ([]*pet.Pet, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM pets
		WHERE level >= $1 AND level <= $2
		ORDER BY experience DESC
	`, petColumns)

	rows, err := r.conn.Query(ctx, query, int(minLevel), int(maxLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to find pets by level range: %w", err)
	}
	defer rows.Close()

	return r.scanPets(rows)
}

// ─────────────────────────────────────────────────────────────────────────────
// Existence Checks
// ─────────────────────────────────────────────────────────────────────────────

// Exists checks if a pet exists by ID.
func (r *PetRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM pets WHERE id = $1)",
		id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pet existence: %w", err)
	}
	return exists, nil
}

// ExistsByUserID checks if the user has a pet.
func (r *PetRepository) ExistsByUserID(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM pets WHERE user_id = $1)",
		userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pet existence by user id: %w", err)
	}
	return exists, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *PetRepository) scanPet(row pgx.Row) (*pet.Pet, error) {
	var (
		p             pet.Pet
		level         int
		experience    int
		intelligence  int
		points        int
		nutritionJSON []byte
		foodJSON      []byte
		lastStudiedAt *time.Time
		lastChattedAt *time.Time
		diedAt        *time.Time
		sprite        string
		room          string
		mbti          string
	)

	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &level, &experience, &intelligence, &p.Hunger,
		&nutritionJSON, &p.IsDead, &p.LastFedAt, &lastStudiedAt, &p.LastPlayedAt,
		&lastChattedAt, &diedAt, &foodJSON, &points,
		&sprite, &room, &mbti, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrPetNotFound
		}
		return nil, fmt.Errorf("failed to scan pet: %w", err)
	}

	p.Level = pet.Level(level)
	p.Experience = pet.Experience(experience)
	p.Intelligence = pet.Intelligence(intelligence)
	p.Points = pet.Points(points)
	p.CharacterSprite = pet.CharacterSprite(sprite)
	p.RoomType = pet.RoomType(room)
	p.MBTI = pet.MBTIType(mbti)
	p.LastStudiedAt = derefTime(lastStudiedAt)
	p.LastChattedAt = derefTime(lastChattedAt)
	p.DiedAt = derefTime(diedAt)

	if err := json.Unmarshal(nutritionJSON, &p.Nutrition); err != nil {
		return nil, fmt.Errorf("failed to unmarshal nutrition: %w", err)
	}
	if err := json.Unmarshal(foodJSON, &p.FoodInventory); err != nil {
		return nil, fmt.Errorf("failed to unmarshal food inventory: %w", err)
	}

	return &p, nil
}

func (r *PetRepository) scanPets(rows pgx.Rows) ([]*pet.Pet, error) {
	pets := make([]*pet.Pet, 0)
	for rows.Next() {
		p, err := r.scanPet(rows)
		if err != nil {
			return nil, err
		}
		pets = append(pets, p)
	}
	return pets, rows.Err()
}

func (r *PetRepository) buildOrderBy(opts pet.ListOptions) string {
	column := "experience"
	switch opts.SortBy {
	case "experience", "level", "created_at", "updated_at", "name":
		column = opts.SortBy
	}
	direction := "ASC"
	if opts.SortDesc {
		direction = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s", column, direction)
}

func marshalPetJSON(p *pet.Pet) (nutrition, food []byte, err error) {
	nutrition, err = json.Marshal(p.Nutrition)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal nutrition: %w", err)
	}
	food, err = json.Marshal(p.FoodInventory)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal food inventory: %w", err)
	}
	return nutrition, food, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
