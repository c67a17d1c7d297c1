// Package sqlite implements the SQLite record store for the thoracic
// registry: schema creation, additive migration, typed CRUD per entity,
// staging lookup tables, and tolerant read-only access to source database
// files during import.
package sqlite

// Schema DDL. Tables are created with IF NOT EXISTS because the store opens
// pre-existing database files; missing columns on older files are handled by
// the migration manager, not by DDL.
const (
	createPatient = `CREATE TABLE IF NOT EXISTS Patient (
    patient_id INTEGER PRIMARY KEY AUTOINCREMENT,
    hospital_id TEXT UNIQUE,
    cancer_type TEXT,
    sex TEXT,
    birth_ym4 TEXT,
    pack_years REAL,
    multi_primary INTEGER,
    lung_t TEXT,
    lung_n TEXT,
    lung_m TEXT,
    eso_t TEXT,
    eso_n TEXT,
    eso_m TEXT,
    eso_histology TEXT,
    eso_grade TEXT,
    eso_location TEXT,
    eso_from_incisors_cm REAL,
    diabetes_history INTEGER DEFAULT 0,
    family_history INTEGER DEFAULT 0,
    nac_chemo INTEGER,
    nac_chemo_cycles INTEGER,
    nac_immuno INTEGER,
    nac_immuno_cycles INTEGER,
    nac_targeted INTEGER,
    nac_targeted_cycles INTEGER,
    nac_radiation INTEGER,
    nac_antiangio INTEGER,
    nac_antiangio_cycles INTEGER,
    nac_date TEXT,
    adj_chemo INTEGER,
    adj_chemo_cycles INTEGER,
    adj_immuno INTEGER,
    adj_immuno_cycles INTEGER,
    adj_targeted INTEGER,
    adj_targeted_cycles INTEGER,
    adj_radiation INTEGER,
    adj_antiangio INTEGER,
    adj_antiangio_cycles INTEGER,
    adj_date TEXT,
    notes_patient TEXT
);`

	createSurgery = `CREATE TABLE IF NOT EXISTS Surgery (
    surgery_id INTEGER PRIMARY KEY AUTOINCREMENT,
    patient_id INTEGER,
    cancer_type TEXT,
    surgery_date6 TEXT,
    indication TEXT,
    planned INTEGER DEFAULT 1,
    completed INTEGER DEFAULT 1,
    start_hhmm INTEGER,
    end_hhmm INTEGER,
    duration_min INTEGER,
    ln_dissection INTEGER DEFAULT 1,
    r0 INTEGER DEFAULT 1,
    approach TEXT,
    scope_lung TEXT,
    lobe TEXT,
    left_side INTEGER DEFAULT 0,
    right_side INTEGER DEFAULT 0,
    bilateral INTEGER,
    lesion_count INTEGER,
    main_lesion_size_cm REAL,
    esophagus_site TEXT,
    notes_surgery TEXT,
    FOREIGN KEY (patient_id) REFERENCES Patient(patient_id) ON DELETE CASCADE
);`

	createPathology = `CREATE TABLE IF NOT EXISTS Pathology (
    path_id INTEGER PRIMARY KEY AUTOINCREMENT,
    patient_id INTEGER,
    specimen_type TEXT,
    histology TEXT,
    differentiation TEXT,
    pt TEXT,
    pn TEXT,
    pm TEXT,
    p_stage TEXT,
    lvi INTEGER,
    pni INTEGER,
    pleural_invasion INTEGER,
    airway_spread INTEGER,
    pathology_no TEXT,
    pathology_date TEXT,
    ln_total INTEGER,
    ln_positive INTEGER,
    trg INTEGER,
    report_date TEXT,
    notes_path TEXT,
    aden_subtype TEXT,
    FOREIGN KEY (patient_id) REFERENCES Patient(patient_id) ON DELETE CASCADE
);`

	createMolecular = `CREATE TABLE IF NOT EXISTS Molecular (
    mol_id INTEGER PRIMARY KEY AUTOINCREMENT,
    patient_id INTEGER,
    platform TEXT,
    vendor_lab TEXT,
    gene TEXT,
    variant TEXT,
    pdl1_percent REAL,
    tmb_msi TEXT,
    test_date TEXT,
    genes_tested TEXT,
    result_summary TEXT,
    ctc_count INTEGER,
    methylation_result TEXT,
    notes_mol TEXT,
    FOREIGN KEY (patient_id) REFERENCES Patient(patient_id) ON DELETE CASCADE
);`

	createFollowUpEvent = `CREATE TABLE IF NOT EXISTS FollowUpEvent (
    event_id INTEGER PRIMARY KEY AUTOINCREMENT,
    patient_id INTEGER NOT NULL,
    event_date TEXT NOT NULL,
    event_type TEXT NOT NULL,
    event_details TEXT,
    event_code TEXT NOT NULL,
    FOREIGN KEY (patient_id) REFERENCES Patient(patient_id) ON DELETE CASCADE
);`
)

// Staging lookup tables for AJCC version 9 stage mapping. Populated from
// CSV files shipped alongside the application; empty tables simply yield
// no lookup matches.
const (
	createMapLung = `CREATE TABLE IF NOT EXISTS map_lung_v9 (
    t TEXT,
    n TEXT,
    m TEXT,
    stage TEXT
);`

	createMapEsoSCC = `CREATE TABLE IF NOT EXISTS map_eso_v9_scc (
    t TEXT,
    n TEXT,
    m TEXT,
    grade TEXT,
    location TEXT,
    stage TEXT
);`

	createMapEsoAD = `CREATE TABLE IF NOT EXISTS map_eso_v9_ad (
    t TEXT,
    n TEXT,
    m TEXT,
    grade TEXT,
    location TEXT,
    stage TEXT
);`
)

// Index DDL for the lookups the forms and the importer perform.
const (
	idxPatientCancerType  = `CREATE INDEX IF NOT EXISTS idx_patient_cancer_type ON Patient(cancer_type);`
	idxSurgeryPatient     = `CREATE INDEX IF NOT EXISTS idx_surgery_patient_id ON Surgery(patient_id);`
	idxPathologyPatient   = `CREATE INDEX IF NOT EXISTS idx_path_patient_id ON Pathology(patient_id);`
	idxMolecularPatient   = `CREATE INDEX IF NOT EXISTS idx_mol_patient_id ON Molecular(patient_id);`
	idxFollowUpPatient    = `CREATE INDEX IF NOT EXISTS idx_followup_event_patient_id ON FollowUpEvent(patient_id);`
	idxFollowUpDate       = `CREATE INDEX IF NOT EXISTS idx_followup_event_date ON FollowUpEvent(event_date DESC);`
	idxFollowUpEventCode  = `CREATE UNIQUE INDEX IF NOT EXISTS idx_followup_event_code ON FollowUpEvent(patient_id, event_code);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createPatient,
	createSurgery,
	createPathology,
	createMolecular,
	createFollowUpEvent,
	createMapLung,
	createMapEsoSCC,
	createMapEsoAD,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxPatientCancerType,
	idxSurgeryPatient,
	idxPathologyPatient,
	idxMolecularPatient,
	idxFollowUpPatient,
	idxFollowUpDate,
	idxFollowUpEventCode,
}
