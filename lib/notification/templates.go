package notificationhandler

import (
	"bytes"
	"fmt"
	"html/template"

	"employee-portal-backend/models"

	"github.com/pkg/errors"
)

var htmlLayout = template.Must(template.New("notify").Parse(`<html>
<body style="font-family: Arial, sans-serif; color: #222;">
<p>{{.Greeting}}</p>
<p>{{.Body}}</p>
{{if .Note}}<blockquote style="border-left: 3px solid #ccc; padding-left: 10px; color: #555;">{{.Note}}</blockquote>{{end}}
<p style="color: #888; font-size: 12px;">Письмо сформировано порталом сервисов для сотрудников, отвечать на него не нужно.</p>
</body>
</html>`))

type templateData struct {
	Greeting string
	Body     string
	Note     string
}

// buildMessage - тема и тело письма по имени события
func buildMessage(p NotifyParams) (subject, htmlBody, textBody string, err error) {
	ticketRef := fmt.Sprintf("%s «%s»", p.Ticket.Number, p.Ticket.Title)
	data := templateData{
		Greeting: "Здравствуйте!",
		Note:     p.Note,
	}
	switch p.Event {
	case models.NotifyTicketCreated:
		subject = fmt.Sprintf("Заявка %s зарегистрирована", p.Ticket.Number)
		data.Body = fmt.Sprintf("Заявка %s зарегистрирована и принята в обработку.", ticketRef)
	case models.NotifyTicketAssigned:
		subject = fmt.Sprintf("Заявка %s назначена исполнителю", p.Ticket.Number)
		data.Body = fmt.Sprintf("По заявке %s назначен исполнитель: %s.", ticketRef, p.EngineerName)
	case models.NotifyTicketStatusChanged:
		subject = fmt.Sprintf("Заявка %s: смена статуса", p.Ticket.Number)
		data.Body = fmt.Sprintf("Статус заявки %s изменен: %s → %s.",
			ticketRef, p.OldStatus.ToHuman(), p.NewStatus.ToHuman())
	case models.NotifyTicketPriorityChanged:
		subject = fmt.Sprintf("Заявка %s: смена приоритета", p.Ticket.Number)
		data.Body = fmt.Sprintf("Приоритет заявки %s изменен: %s → %s.",
			ticketRef, p.OldPriority.ToHuman(), p.NewPriority.ToHuman())
	case models.NotifyTicketNoteAdded:
		subject = fmt.Sprintf("Заявка %s: новый комментарий", p.Ticket.Number)
		data.Body = fmt.Sprintf("По заявке %s добавлен комментарий.", ticketRef)
	case models.NotifyTicketReopened:
		subject = fmt.Sprintf("Заявка %s возвращена в работу", p.Ticket.Number)
		data.Body = fmt.Sprintf("Заявитель вернул заявку %s в работу.", ticketRef)
	case models.NotifyApprovalRequested:
		subject = fmt.Sprintf("Требуется согласование заявки %s", p.Ticket.Number)
		data.Body = fmt.Sprintf("Вам направлена на согласование заявка %s.", ticketRef)
	case models.NotifyApprovalPartial:
		subject = fmt.Sprintf("Заявка %s частично согласована", p.Ticket.Number)
		data.Body = fmt.Sprintf("Заявка %s согласована (%s). Ожидается решение остальных согласующих.",
			ticketRef, p.ApproverEmail)
	case models.NotifyApprovalComplete:
		subject = fmt.Sprintf("Заявка %s полностью согласована", p.Ticket.Number)
		data.Body = fmt.Sprintf("Заявка %s согласована всеми участниками и принята в работу.", ticketRef)
	case models.NotifyApprovalRejected:
		subject = fmt.Sprintf("Заявка %s отклонена", p.Ticket.Number)
		data.Body = fmt.Sprintf("Заявка %s отклонена согласующим (%s) и закрыта.", ticketRef, p.ApproverEmail)
	case models.NotifySlaWarning:
		subject = fmt.Sprintf("Заявка %s: приближение к сроку SLA", p.Ticket.Number)
		data.Body = fmt.Sprintf("По заявке %s израсходовано %d из %d минут целевого времени решения.",
			ticketRef, p.ElapsedMin, p.TargetMin)
	case models.NotifySlaBreach:
		subject = fmt.Sprintf("Заявка %s: нарушение срока SLA", p.Ticket.Number)
		data.Body = fmt.Sprintf("По заявке %s превышено целевое время решения (%d из %d минут).",
			ticketRef, p.ElapsedMin, p.TargetMin)
	case models.NotifyAutoCloseReminder:
		subject = fmt.Sprintf("Заявка %s будет закрыта автоматически", p.Ticket.Number)
		data.Body = fmt.Sprintf("Заявка %s решена %d дн. назад. Подтвердите решение или верните заявку в работу, иначе она будет закрыта автоматически.",
			ticketRef, p.Day)
	case models.NotifyAutoClosed:
		subject = fmt.Sprintf("Заявка %s закрыта автоматически", p.Ticket.Number)
		data.Body = fmt.Sprintf("Заявка %s закрыта автоматически: решение не было подтверждено или оспорено в отведенный срок.", ticketRef)
	default:
		return "", "", "", errors.Errorf("неизвестное событие уведомления: %v", p.Event)
	}

	buf := new(bytes.Buffer)
	if err = htmlLayout.Execute(buf, data); err != nil {
		return "", "", "", errors.Wrap(err, "ошибка формирования html письма")
	}
	textBody = data.Body
	if p.Note != "" {
		textBody = fmt.Sprintf("%s\r\n\r\n%s", data.Body, p.Note)
	}
	return subject, buf.String(), textBody, nil
}
