package xlsexport

import (
	"bytes"
	dbmodels "employee-portal-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

type Provider interface {
	ExportTicketList(list []dbmodels.Ticket) (*bytes.Buffer, error)
}

var Instance Provider

func NewHandler() {
	Instance = impl{}
}

type impl struct{}

var ticketHeaders = []string{"Номер", "Тип", "Тема", "Статус", "Приоритет", "Заявитель", "Исполнитель", "Дата создания", "Дата решения", "Дата закрытия"}

func (i impl) ExportTicketList(list []dbmodels.Ticket) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.WithError(err).Error("ошибка закрытия файла")
		}
	}()
	sheet := "Sheet1"
	row := 0
	row, err := writeHeader(f, sheet, row, ticketHeaders)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка формирования заголовка в xlsx")
	}
	if len(list) != 0 {
		row, err = writeTicketData(f, sheet, list, row)
		if err != nil {
			return nil, errors.Wrap(err, "ошибка формирования таблицы с данными в xlsx")
		}
	}
	f.SetSheetName(sheet, "Заявки")
	return f.WriteToBuffer()
}

func writeTicketData(f *excelize.File, sheet string, list []dbmodels.Ticket, row int) (int, error) {
	if err := applyDataCellStyle(f, sheet, 1, row+1, len(ticketHeaders), len(list)+1); err != nil {
		return row, err
	}
	for _, item := range list {
		row++
		// "Номер"
		col := 1
		if err := writeColumn(f, sheet, col, row, item.Number); err != nil {
			return row, err
		}

		// "Тип"
		col++
		if err := writeColumn(f, sheet, col, row, item.Type.ToHuman()); err != nil {
			return row, err
		}

		// "Тема"
		col++
		if err := writeColumn(f, sheet, col, row, item.Title); err != nil {
			return row, err
		}

		// "Статус"
		col++
		if err := writeColumn(f, sheet, col, row, item.Status.ToHuman()); err != nil {
			return row, err
		}

		// "Приоритет"
		col++
		if err := writeColumn(f, sheet, col, row, item.Priority.ToHuman()); err != nil {
			return row, err
		}

		// "Заявитель"
		col++
		if item.Requester != nil {
			if err := writeColumn(f, sheet, col, row, item.Requester.GetFullName()); err != nil {
				return row, err
			}
		}

		// "Исполнитель"
		col++
		if assignment := item.GetActiveAssignment(); assignment != nil && assignment.Engineer != nil {
			if err := writeColumn(f, sheet, col, row, assignment.Engineer.GetFullName()); err != nil {
				return row, err
			}
		}

		// "Дата создания"
		col++
		if err := writeColumn(f, sheet, col, row, item.CreatedAt.Format("02.01.2006 15:04")); err != nil {
			return row, err
		}

		// "Дата решения"
		col++
		if item.ResolvedAt != nil {
			if err := writeColumn(f, sheet, col, row, item.ResolvedAt.Format("02.01.2006 15:04")); err != nil {
				return row, err
			}
		}

		// "Дата закрытия"
		col++
		if item.ClosedAt != nil {
			if err := writeColumn(f, sheet, col, row, item.ClosedAt.Format("02.01.2006 15:04")); err != nil {
				return row, err
			}
		}
	}
	return row, nil
}
