package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE cases (
				id VARCHAR(255) PRIMARY KEY,
				type VARCHAR(50) NOT NULL,
				phase VARCHAR(50) NOT NULL,
				status VARCHAR(50) NOT NULL,
				title VARCHAR(512) NOT NULL,
				metadata JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_cases_type ON cases(type);
			CREATE INDEX idx_cases_phase ON cases(phase);
			CREATE INDEX idx_cases_status ON cases(status);

			CREATE TABLE scheduled_tasks (
				id VARCHAR(255) PRIMARY KEY,
				task_id VARCHAR(255) NOT NULL,
				case_id VARCHAR(255) NOT NULL,
				title VARCHAR(512) NOT NULL,
				description TEXT,
				scheduled_time TIMESTAMP WITH TIME ZONE NOT NULL,
				due_date TIMESTAMP WITH TIME ZONE,
				priority VARCHAR(20) NOT NULL,
				status VARCHAR(20) NOT NULL,
				assigned_to VARCHAR(255) NOT NULL,
				assigned_by VARCHAR(255),
				recurrence JSONB,
				reminders JSONB,
				dependencies JSONB,
				metadata JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_scheduled_tasks_case_id ON scheduled_tasks(case_id);
			CREATE INDEX idx_scheduled_tasks_assigned_to ON scheduled_tasks(assigned_to);
			CREATE INDEX idx_scheduled_tasks_status ON scheduled_tasks(status);
			CREATE INDEX idx_scheduled_tasks_due_date ON scheduled_tasks(due_date);

			CREATE TABLE rules (
				id VARCHAR(255) PRIMARY KEY,
				document JSONB NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE TABLE templates (
				id VARCHAR(255) PRIMARY KEY,
				document JSONB NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE TABLE audit_records (
				id VARCHAR(255) PRIMARY KEY,
				case_id VARCHAR(255) NOT NULL,
				task_id VARCHAR(255),
				actor VARCHAR(255),
				action VARCHAR(255) NOT NULL,
				detail TEXT,
				at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_audit_records_case_id ON audit_records(case_id);
			CREATE INDEX idx_audit_records_at ON audit_records(at);
		`,
	}
}
