package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"missiontrack/api/internal/filter"
	"missiontrack/api/internal/mission"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ── Users ──

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, password_hash, profile_id, deactivated_at
		FROM users WHERE LOWER(email) = LOWER($1)
	`, email).Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.ProfileID, &user.DeactivatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, password_hash, profile_id, deactivated_at
		FROM users WHERE id = $1
	`, userID).Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.ProfileID, &user.DeactivatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// ── Missions ──

// flagColumns maps canonical field names onto mission table columns. Only
// names present here ever reach a query, which keeps SetFlagStatus safe
// from identifier injection.
var flagColumns = map[string]string{
	mission.FieldConflictCheck:  "conflict_check",
	mission.FieldLabGroup:       "lab_group",
	mission.FieldLabClient:      "lab_client",
	mission.FieldCartoLabGroup:  "carto_lab_group",
	mission.FieldCartoLabClient: "carto_lab_client",
	mission.FieldQAM:            "qam",
	mission.FieldLDM:            "ldm",
	mission.FieldNOG:            "nog",
	mission.FieldChecklist:      "checklist",
	mission.FieldReview:         "review",
	mission.FieldSupervision:    "supervision",
	mission.FieldNDS:            "nds",
	mission.FieldQMM:            "qmm",
	mission.FieldPlaquette:      "plaquette",
	mission.FieldRestitution:    "restitution",
	mission.FieldCR:             "cr",
	mission.FieldEndOfRelation:  "end_of_relation",
}

var levelColumns = map[string]string{
	"group":   "group_id",
	"client":  "client_id",
	"mission": "mission_id",
}

const missionColumns = `
	group_id, group_name, client_id, client_name, mission_id,
	code, label, millesime, bureau, etat_mission, etat_dossier,
	forme_juridique, section_naf, mois_cloture, associe_id, dmcm_id, dmcm2_id,
	conflict_check, lab_group, lab_client, carto_lab_group, carto_lab_client,
	qam, ldm, nog, checklist, review, supervision,
	nds, qmm, plaquette, restitution, cr, end_of_relation
`

func scanMission(rows *sql.Rows) (mission.Record, error) {
	var r mission.Record
	err := rows.Scan(
		&r.GroupID, &r.GroupName, &r.ClientID, &r.ClientName, &r.MissionID,
		&r.Code, &r.Label, &r.Millesime, &r.Bureau, &r.EtatMission, &r.EtatDossier,
		&r.FormeJuridique, &r.SectionNAF, &r.MoisCloture, &r.AssocieID, &r.DMCMID, &r.DMCM2ID,
		&r.Before.ConflictCheck.Value, &r.Before.LabGroup.Value, &r.Before.LabClient.Value,
		&r.Before.CartoLabGroup.Value, &r.Before.CartoLabClient.Value,
		&r.Before.QAM.Value, &r.Before.LDM.Value,
		&r.During.NOG.Value, &r.During.Checklist.Value, &r.During.Review.Value, &r.During.Supervision.Value,
		&r.After.NDS.Value, &r.After.QMM.Value, &r.After.Plaquette.Value, &r.After.Restitution.Value,
		&r.After.CR.Value, &r.After.EndOfRelation.Value,
	)
	return r, err
}

// ListMissions returns the flat, denormalized mission list for one access
// profile, with per-flag access levels resolved from the profile table.
func (s *PostgresStore) ListMissions(ctx context.Context, profileID string) ([]mission.Record, error) {
	accessByField, err := s.profileAccess(ctx, profileID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+missionColumns+`
		FROM missions
		ORDER BY group_name, group_id, client_name, client_id, code, millesime, mission_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list missions: %w", err)
	}
	defer rows.Close()

	var out []mission.Record
	for rows.Next() {
		r, err := scanMission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mission: %w", err)
		}
		r.ProfileID = profileID
		applyAccess(&r, accessByField)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) profileAccess(ctx context.Context, profileID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT field, level FROM profile_flag_access WHERE profile_id = $1
	`, profileID)
	if err != nil {
		return nil, fmt.Errorf("profile access: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var field, level string
		if err := rows.Scan(&field, &level); err != nil {
			return nil, fmt.Errorf("scan profile access: %w", err)
		}
		out[field] = level
	}
	return out, rows.Err()
}

func applyAccess(r *mission.Record, accessByField map[string]string) {
	for _, field := range mission.Fields() {
		level, ok := accessByField[field]
		if !ok {
			level = "noaccess"
		}
		mission.FlagRef(r, field).Access = level
	}
}

// SetFlagStatus persists one flag change across every mission row matching
// the target at the given level, mirroring the denormalized shape of the
// table. Returns the number of rows updated.
func (s *PostgresStore) SetFlagStatus(ctx context.Context, level, targetID, field, value string) (int64, error) {
	column, ok := flagColumns[field]
	if !ok {
		return 0, fmt.Errorf("unknown flag field %q", field)
	}
	where, ok := levelColumns[level]
	if !ok {
		return 0, fmt.Errorf("unknown level %q", level)
	}
	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE missions SET %s = $1, updated_at = NOW() WHERE %s = $2`, column, where),
		value, targetID)
	if err != nil {
		return 0, fmt.Errorf("set flag status: %w", err)
	}
	return result.RowsAffected()
}

// ── Filter options ──

// optionQueries returns {value,label} pairs per dimension. mois_cloture is
// intentionally absent: the panel hardcodes months 1-12 and never fetches
// them.
var optionQueries = map[string]string{
	filter.DimGroupe:         `SELECT DISTINCT group_id, group_name FROM missions ORDER BY group_name`,
	filter.DimDossier:        `SELECT DISTINCT client_id, client_name FROM missions ORDER BY client_name`,
	filter.DimBureau:         `SELECT DISTINCT bureau, bureau FROM missions WHERE bureau <> '' ORDER BY bureau`,
	filter.DimEtatMission:    `SELECT DISTINCT etat_mission, etat_mission FROM missions WHERE etat_mission <> '' ORDER BY etat_mission`,
	filter.DimEtatDossier:    `SELECT DISTINCT etat_dossier, etat_dossier FROM missions WHERE etat_dossier <> '' ORDER BY etat_dossier`,
	filter.DimAssocie:        `SELECT DISTINCT m.associe_id, u.display_name FROM missions m JOIN users u ON u.id = m.associe_id ORDER BY u.display_name`,
	filter.DimFormeJuridique: `SELECT DISTINCT forme_juridique, forme_juridique FROM missions WHERE forme_juridique <> '' ORDER BY forme_juridique`,
	filter.DimSectionNAF:     `SELECT DISTINCT section_naf, section_naf FROM missions WHERE section_naf <> '' ORDER BY section_naf`,
	filter.DimCodeMission:    `SELECT DISTINCT code, code FROM missions ORDER BY code`,
	filter.DimMillesime:      `SELECT DISTINCT millesime, millesime FROM missions ORDER BY millesime DESC`,
	filter.DimDMCM: `SELECT DISTINCT id, display_name FROM (
		SELECT m.dmcm_id AS id, u.display_name FROM missions m JOIN users u ON u.id = m.dmcm_id
		UNION
		SELECT m.dmcm2_id AS id, u.display_name FROM missions m JOIN users u ON u.id = m.dmcm2_id
	) billers ORDER BY display_name`,
}

var ErrUnknownDimension = errors.New("unknown filter dimension")

func (s *PostgresStore) FilterOptions(ctx context.Context, dimension string) ([]filter.Option, error) {
	query, ok := optionQueries[dimension]
	if !ok {
		return nil, ErrUnknownDimension
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("filter options %s: %w", dimension, err)
	}
	defer rows.Close()

	out := []filter.Option{}
	for rows.Next() {
		var opt filter.Option
		if err := rows.Scan(&opt.Value, &opt.Label); err != nil {
			return nil, fmt.Errorf("scan filter option: %w", err)
		}
		out = append(out, opt)
	}
	return out, rows.Err()
}

// ── Documents ──

func (s *PostgresStore) InsertDocument(ctx context.Context, doc Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, mission_id, level, target_id, field, filename, content_type, size_bytes, object_key, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, doc.ID, doc.MissionID, doc.Level, doc.TargetID, doc.Field, doc.Filename, doc.ContentType, doc.SizeBytes, doc.ObjectKey, doc.UploadedBy)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, id string) (Document, error) {
	var doc Document
	err := s.db.QueryRowContext(ctx, `
		SELECT id, mission_id, level, target_id, field, filename, content_type, size_bytes, object_key, uploaded_by, uploaded_at
		FROM documents WHERE id = $1
	`, id).Scan(&doc.ID, &doc.MissionID, &doc.Level, &doc.TargetID, &doc.Field, &doc.Filename,
		&doc.ContentType, &doc.SizeBytes, &doc.ObjectKey, &doc.UploadedBy, &doc.UploadedAt)
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (s *PostgresStore) DeleteDocument(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListDocuments returns the documents attached to one flag of one target,
// newest first, as shown in the modal.
func (s *PostgresStore) ListDocuments(ctx context.Context, level, targetID, field string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mission_id, level, target_id, field, filename, content_type, size_bytes, object_key, uploaded_by, uploaded_at
		FROM documents
		WHERE level = $1 AND target_id = $2 AND field = $3
		ORDER BY uploaded_at DESC
	`, level, targetID, field)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.MissionID, &doc.Level, &doc.TargetID, &doc.Field, &doc.Filename,
			&doc.ContentType, &doc.SizeBytes, &doc.ObjectKey, &doc.UploadedBy, &doc.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}
