package hostdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bloomcare/bloom-waitlist/internal/log"
	"github.com/bloomcare/bloom-waitlist/internal/models"
	"github.com/bloomcare/bloom-waitlist/pkg/constants"
	"github.com/google/uuid"
)

// ErrPersistenceUnavailable means no provisioning step left the table usable.
var ErrPersistenceUnavailable = errors.New("remote persistence unavailable")

const createExecuteSQLFunction = `CREATE OR REPLACE FUNCTION execute_sql(sql_query TEXT)
RETURNS JSONB
LANGUAGE plpgsql
SECURITY DEFINER
SET search_path = public
AS $$
BEGIN
  EXECUTE sql_query;
  RETURN '{"success": true}'::JSONB;
EXCEPTION WHEN OTHERS THEN
  RETURN jsonb_build_object('success', false, 'error', SQLERRM, 'error_detail', SQLSTATE);
END;
$$;`

// statusPoster is implemented by clients that can issue a raw POST and report the status.
type statusPoster interface {
	PostStatus(ctx context.Context, path string, body any) (int, error)
}

type StepResult struct {
	Step  string `json:"step"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type ProvisionResult struct {
	Usable bool         `json:"usable"`
	Steps  []StepResult `json:"steps"`
}

func (r *ProvisionResult) record(step string, err error) bool {
	res := StepResult{Step: step, OK: err == nil}
	if err != nil {
		res.Error = err.Error()
	}
	r.Steps = append(r.Steps, res)
	return err == nil
}

// Provisioner creates the waitlist table from deployment tooling. The server never calls it.
type Provisioner struct {
	client Client
	logger *log.Logger
	table  string
	ddl    string
}

func NewProvisioner(client Client, logger *log.Logger, table, ddl string) *Provisioner {
	if logger == nil {
		logger = log.NewDiscardLogger()
	}
	if table == "" {
		table = constants.WaitlistTable
	}
	return &Provisioner{client: client, logger: logger, table: table, ddl: ddl}
}

// Provision tries, in order: the execute_sql procedure, creating that procedure and
// retrying, then a synthetic insert to see whether the table already accepts rows.
func (p *Provisioner) Provision(ctx context.Context) (*ProvisionResult, error) {
	result := &ProvisionResult{}
	if !p.client.Configured() {
		result.record("configuration", ErrNotConfigured)
		return result, fmt.Errorf("%w: %v", ErrPersistenceUnavailable, ErrNotConfigured)
	}

	err := p.executeDDL(ctx)
	if result.record("execute_sql", err) {
		result.Usable = true
		return result, nil
	}
	p.logger.Warn("execute_sql provisioning failed", AsError(err).LogAttrs()...)

	if IsUndefinedFunction(err) {
		if p.createExecuteSQL(ctx, result) {
			err = p.executeDDL(ctx)
			if result.record("execute_sql_retry", err) {
				result.Usable = true
				return result, nil
			}
			p.logger.Warn("execute_sql retry failed", AsError(err).LogAttrs()...)
		}
	}

	if p.probeTable(ctx, result) {
		result.Usable = true
		return result, nil
	}

	p.logger.Error("All provisioning attempts failed", "table", p.table)
	return result, ErrPersistenceUnavailable
}

func (p *Provisioner) executeDDL(ctx context.Context) error {
	if p.ddl == "" {
		return errors.New("no DDL supplied")
	}

	raw, err := p.client.RPC(ctx, executeSQLFunction, map[string]any{"sql_query": p.ddl})
	if err != nil {
		return err
	}

	// The procedure swallows SQL errors and reports them in its JSON result.
	var reply struct {
		Success *bool  `json:"success"`
		Error   string `json:"error"`
		Detail  string `json:"error_detail"`
	}
	if len(raw) > 0 && json.Unmarshal(raw, &reply) == nil && reply.Success != nil && !*reply.Success {
		return &Error{Code: reply.Detail, Message: reply.Error}
	}
	return nil
}

func (p *Provisioner) createExecuteSQL(ctx context.Context, result *ProvisionResult) bool {
	poster, ok := p.client.(statusPoster)
	if !ok {
		result.record("create_execute_sql", errors.New("client cannot issue raw requests"))
		return false
	}

	status, err := poster.PostStatus(ctx, restPrefix+"rpc/"+executeSQLFunction, map[string]any{"sql_query": createExecuteSQLFunction})
	if err == nil && status >= http.StatusBadRequest {
		err = fmt.Errorf("unexpected status %d", status)
	}
	if !result.record("create_execute_sql", err) {
		p.logger.Warn("Creating execute_sql failed", "error", err)
		return false
	}
	return true
}

// probeTable treats a created row (201) or a duplicate (409) as proof the table is usable.
func (p *Provisioner) probeTable(ctx context.Context, result *ProvisionResult) bool {
	email := "provision+" + uuid.NewString() + "@bloom.invalid"
	row := models.NewWaitlistEntry(email, nil, time.Now()).Row()

	var err error
	created := false
	if poster, ok := p.client.(statusPoster); ok {
		var status int
		status, err = poster.PostStatus(ctx, restPrefix+p.table, row)
		switch {
		case err != nil:
		case status == http.StatusCreated:
			created = true
		case status == http.StatusConflict:
		default:
			err = fmt.Errorf("unexpected status %d", status)
		}
	} else {
		err = p.client.Insert(ctx, p.table, row)
		if err == nil {
			created = true
		} else if IsUniqueViolation(err) {
			err = nil
		}
	}

	if !result.record("table_probe", err) {
		p.logger.Warn("Table probe failed", "table", p.table, "error", err)
		return false
	}

	if created {
		if derr := p.client.DeleteWhere(ctx, p.table, constants.ColumnEmail, email); derr != nil {
			p.logger.Debug("Provision probe cleanup failed", "error", derr)
		}
	}
	return true
}
