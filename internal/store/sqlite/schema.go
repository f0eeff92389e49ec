package sqlite

// Amounts are stored as integer minor units plus a scale column, never as
// REAL, so nothing round-trips through binary floating point.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id               INTEGER PRIMARY KEY,
	name             TEXT NOT NULL UNIQUE,
	type             TEXT NOT NULL,
	balance_units    INTEGER NOT NULL,
	reconciled_units INTEGER NOT NULL,
	scale            INTEGER NOT NULL,
	tax_line         TEXT NOT NULL DEFAULT '',
	description      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS transactions (
	id           TEXT PRIMARY KEY,
	seq          INTEGER NOT NULL,
	date         TEXT NOT NULL,
	memo         TEXT NOT NULL,
	kind         TEXT NOT NULL,
	status       TEXT NOT NULL,
	check_number INTEGER NOT NULL DEFAULT 0,
	printed      INTEGER NOT NULL DEFAULT 0,
	cleared      INTEGER NOT NULL DEFAULT 0,
	reconciled   INTEGER NOT NULL DEFAULT 0,
	void_of      TEXT NOT NULL DEFAULT '',
	applies_to   TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_transactions_applies_to ON transactions(applies_to);

CREATE TABLE IF NOT EXISTS postings (
	transaction_id TEXT NOT NULL REFERENCES transactions(id),
	idx            INTEGER NOT NULL,
	account_id     INTEGER NOT NULL REFERENCES accounts(id),
	amount_units   INTEGER NOT NULL,
	scale          INTEGER NOT NULL,
	side           TEXT NOT NULL,
	PRIMARY KEY (transaction_id, idx)
);

CREATE INDEX IF NOT EXISTS idx_postings_account ON postings(account_id);

CREATE TABLE IF NOT EXISTS reconciliations (
	id                        TEXT PRIMARY KEY,
	account_id                INTEGER NOT NULL REFERENCES accounts(id),
	statement_date            TEXT NOT NULL,
	ending_units              INTEGER NOT NULL,
	cleared_net_units         INTEGER NOT NULL,
	outstanding_checks_units  INTEGER NOT NULL,
	deposits_in_transit_units INTEGER NOT NULL,
	difference_units          INTEGER NOT NULL,
	scale                     INTEGER NOT NULL,
	succeeded                 INTEGER NOT NULL,
	created_at                TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS reconciliation_cleared (
	reconciliation_id TEXT NOT NULL REFERENCES reconciliations(id),
	transaction_id    TEXT NOT NULL REFERENCES transactions(id),
	PRIMARY KEY (reconciliation_id, transaction_id)
);
`
