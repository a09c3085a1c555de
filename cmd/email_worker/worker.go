package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/creator-marketplace/pkg/mailer"
	mailtpl "github.com/oksasatya/creator-marketplace/pkg/mailer/templates"
)

// outcome tells the consumer loop what to do with a delivery.
type outcome int

const (
	ack outcome = iota
	drop
	retry
)

var errNoContent = errors.New("job has neither a template nor a body")

type worker struct {
	sender  mailer.Sender
	logger  *logrus.Logger
	timeout time.Duration
}

// render produces the message for a job. Template jobs always go through the
// universal template.
func render(job *mailer.EmailJob) (subject, text, html string, err error) {
	job.Normalize()
	if job.Template != "" {
		return mailtpl.RenderUniversal(job.Data)
	}
	if job.Text == "" && job.HTML == "" {
		return "", "", "", errNoContent
	}
	return job.Subject, job.Text, job.HTML, nil
}

// handle processes one queue message. Malformed jobs are dropped; send
// failures are requeued.
func (w *worker) handle(ctx context.Context, body []byte) outcome {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		w.logger.WithError(err).Error("bad email job")
		return drop
	}
	if job.To == "" {
		w.logger.Error("email job without recipient")
		return drop
	}
	log := w.logger.WithFields(logrus.Fields{"to": job.To, "template": job.Template})

	subject, text, html, err := render(&job)
	if err != nil {
		log.WithError(err).Error("render email failed")
		return drop
	}

	c, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	if err := w.sender.Send(c, job.To, subject, text, html); err != nil {
		log.WithError(err).Warn("send failed, requeueing")
		return retry
	}
	log.WithField("type", job.Data["Type"]).Info("email sent")
	return ack
}
