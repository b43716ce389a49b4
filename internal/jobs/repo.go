package jobs

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repo struct {
	DB *gorm.DB
}

func (r *Repo) enqueue(ctx context.Context, userID uint64, typ string, notebookID uint64) error {
	j := Job{
		UserID:     userID,
		NotebookID: notebookID,
		Type:       typ,
		RunAt:      time.Now(),
		Status:     "PENDING",
	}
	return r.DB.WithContext(ctx).Create(&j).Error
}

func (r *Repo) EnqueuePurge(ctx context.Context, userID, notebookID uint64) error {
	return r.enqueue(ctx, userID, TypeNotebookPurge, notebookID)
}

func (r *Repo) EnqueueReconcile(ctx context.Context, userID, notebookID uint64) error {
	return r.enqueue(ctx, userID, TypeNotebookReconcile, notebookID)
}

// EnqueueDrifted finds notebooks whose denormalized count disagrees with
// actual membership and enqueues a reconcile for each, skipping notebooks
// that already have one pending.
func (r *Repo) EnqueueDrifted(ctx context.Context) (int64, error) {
	res := r.DB.WithContext(ctx).Exec(`
insert into jobs (user_id, notebook_id, type, run_at, status, attempts, max_attempts, created_at, updated_at)
select nb.user_id, nb.id, 'NOTEBOOK_RECONCILE',
       now(), 'PENDING', 0, 8, now(), now()
from notebooks nb
left join lateral (
  select count(*) as actual from notes n
  where n.notebook_id = nb.id and n.user_id = nb.user_id
) c on true
where nb.note_count <> c.actual
  and not exists (
    select 1 from jobs j
    where j.type = 'NOTEBOOK_RECONCILE'
      and j.status in ('PENDING','RUNNING')
      and j.notebook_id = nb.id
  )
`)
	return res.RowsAffected, res.Error
}

// Claim one due job atomically using SKIP LOCKED.
// Works on Postgres.
func (r *Repo) Claim(workerID string) (*Job, error) {
	var job Job
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		// requeue stuck RUNNING jobs (optional safety)
		tx.Exec(`
update jobs
set status='PENDING', locked_by=null, locked_at=null, updated_at=now()
where status='RUNNING' and locked_at is not null and locked_at < now() - interval '5 minutes'
`)

		// FOR UPDATE SKIP LOCKED ensures no double-claim
		q := tx.Raw(`
with cte as (
  select id
  from jobs
  where status='PENDING' and run_at <= now()
  order by run_at asc
  for update skip locked
  limit 1
)
update jobs
set status='RUNNING', locked_by=?, locked_at=now(), attempts=attempts+1, updated_at=now()
where id in (select id from cte)
returning *;
`, workerID)

		return q.Scan(&job).Error
	})
	if err != nil {
		return nil, err
	}
	if job.ID == 0 {
		return nil, nil
	}
	return &job, nil
}

func (r *Repo) MarkDone(id uint64) error {
	return r.DB.Exec(`update jobs set status='DONE', updated_at=now() where id=?`, id).Error
}

func (r *Repo) MarkFailed(id uint64, reason string) error {
	return r.DB.Exec(`update jobs set status='FAILED', last_error=?, updated_at=now() where id=?`, reason, id).Error
}

// Retry reschedules the job with exponential backoff, or fails it for good
// once attempts are exhausted.
func (r *Repo) Retry(job *Job, reason string) error {
	if job.Attempts >= job.MaxAttempts {
		return r.MarkFailed(job.ID, reason)
	}
	delay := time.Duration(1<<uint(job.Attempts)) * time.Second
	return r.DB.Exec(`
update jobs
set status='PENDING', run_at=?, last_error=?, locked_by=null, locked_at=null, updated_at=now()
where id=?
`, time.Now().Add(delay), reason, job.ID).Error
}
