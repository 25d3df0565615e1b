package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema. These
// run on startup to ensure tables exist.
//
// Ledger integrity rules live here: tanabota_action_logs cascade-delete
// with their transaction, but restrict deletion of the rule/action they
// reference so history cannot silently vanish when a rule definition is
// removed.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    last_name TEXT NOT NULL,
    first_name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    birthdate TEXT NOT NULL,
    postal_code TEXT NOT NULL DEFAULT '',
    address TEXT NOT NULL DEFAULT '',
    phone_number TEXT NOT NULL DEFAULT '',
    occupation TEXT NOT NULL DEFAULT '',
    company_name TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS preferences (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    question TEXT NOT NULL,
    selected_answers TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS triggers (
    id INTEGER PRIMARY KEY,
    kind TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    required_params TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS actions (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    required_params TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS rule_templates (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL,
    author_id INTEGER NOT NULL REFERENCES users(id),
    trigger_id INTEGER NOT NULL REFERENCES triggers(id),
    trigger_params TEXT NOT NULL DEFAULT '{}',
    action_id INTEGER NOT NULL REFERENCES actions(id),
    action_params TEXT NOT NULL DEFAULT '{}',
    is_public INTEGER NOT NULL DEFAULT 1,
    likes_count INTEGER NOT NULL DEFAULT 0,
    copies_count INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS recipe_templates (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    author_id INTEGER NOT NULL REFERENCES users(id),
    is_public INTEGER NOT NULL DEFAULT 1,
    likes_count INTEGER NOT NULL DEFAULT 0,
    copies_count INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS recipe_template_rules (
    recipe_template_id INTEGER NOT NULL REFERENCES recipe_templates(id) ON DELETE CASCADE,
    rule_template_id INTEGER NOT NULL REFERENCES rule_templates(id) ON DELETE CASCADE,
    PRIMARY KEY (recipe_template_id, rule_template_id)
);

CREATE TABLE IF NOT EXISTS rules (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id),
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL,
    template_id INTEGER REFERENCES rule_templates(id) ON DELETE SET NULL,
    trigger_id INTEGER NOT NULL REFERENCES triggers(id),
    trigger_params TEXT NOT NULL DEFAULT '{}',
    action_id INTEGER NOT NULL REFERENCES actions(id),
    action_params TEXT NOT NULL DEFAULT '{}',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS recipes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id),
    template_id INTEGER REFERENCES recipe_templates(id) ON DELETE SET NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS recipe_rules (
    recipe_id INTEGER NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
    rule_id INTEGER NOT NULL REFERENCES rules(id) ON DELETE CASCADE,
    PRIMARY KEY (recipe_id, rule_id)
);

CREATE TABLE IF NOT EXISTS tanabota_transactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id),
    amount_paid INTEGER NOT NULL CHECK (amount_paid >= 0),
    tanabota_total INTEGER NOT NULL DEFAULT 0 CHECK (tanabota_total >= 0),
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tanabota_action_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    transaction_id INTEGER NOT NULL REFERENCES tanabota_transactions(id) ON DELETE CASCADE,
    rule_id INTEGER NOT NULL REFERENCES rules(id) ON DELETE RESTRICT,
    action_id INTEGER NOT NULL REFERENCES actions(id) ON DELETE RESTRICT,
    action_type TEXT NOT NULL,
    action_params TEXT NOT NULL DEFAULT '{}',
    tanabota_amount INTEGER NOT NULL CHECK (tanabota_amount > 0),
    result TEXT
);

CREATE INDEX IF NOT EXISTS idx_preferences_user_id ON preferences(user_id);
CREATE INDEX IF NOT EXISTS idx_rules_user_id ON rules(user_id);
CREATE INDEX IF NOT EXISTS idx_recipes_user_id ON recipes(user_id);
CREATE INDEX IF NOT EXISTS idx_recipe_rules_rule_id ON recipe_rules(rule_id);
CREATE INDEX IF NOT EXISTS idx_tanabota_transactions_user_id ON tanabota_transactions(user_id);
CREATE INDEX IF NOT EXISTS idx_tanabota_action_logs_transaction_id ON tanabota_action_logs(transaction_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
