package apiv1

import (
	"fmt"
	"time"

	"employee-portal-backend/controllers"
	assignmenthandler "employee-portal-backend/lib/assignment"
	employeehandler "employee-portal-backend/lib/employee"
	tickethandler "employee-portal-backend/lib/ticket"
	"employee-portal-backend/middleware"
	"employee-portal-backend/models"
	apimodels "employee-portal-backend/models/api"
	ticketapimodels "employee-portal-backend/models/api/ticket"
	dbmodels "employee-portal-backend/models/db"

	"github.com/gofiber/fiber/v2"
)

type ticketApiController struct {
	controllers.BaseAPIController
}

func InitTicketApiRouters(app *fiber.App) {
	controller := ticketApiController{}
	app.Route("ticket", func(router fiber.Router) {
		router.Post("list", controller.list)
		router.Post("", controller.create)
		router.Post("export", middleware.AdminRoleRequired(), controller.export)
		router.Route(":id", func(idRoute fiber.Router) {
			idRoute.Get("", controller.get)
			idRoute.Get("history", controller.history)
			idRoute.Put("status", controller.changeStatus)
			idRoute.Put("priority", controller.changePriority)
			idRoute.Put("note", controller.addNote)
			idRoute.Put("assign", middleware.AdminRoleRequired(), controller.assign)
			idRoute.Put("claim", middleware.AdminRoleRequired(), controller.claim)
			idRoute.Put("unassign", middleware.AdminRoleRequired(), controller.unassign)
			idRoute.Put("reopen", controller.reopen)
		})
	})
}

// @Summary Список заявок
// @Tags Заявки
// @Description Список заявок с фильтром и пагинацией
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 ticketapimodels.TicketFilter	true	"request body"
// @Success 200 {object} apimodels.ScrollerResponse{data=[]ticketapimodels.TicketView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/portal/ticket/list [post]
func (c *ticketApiController) list(ctx *fiber.Ctx) error {
	var payload ticketapimodels.TicketFilter
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	c.scopeFilter(ctx, &payload)
	list, rowCount, err := tickethandler.Instance.List(payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения списка заявок")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewScrollerResponse(list, rowCount))
}

// @Summary Создание заявки
// @Tags Заявки
// @Description Создание заявки
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 ticketapimodels.TicketCreateData	true	"request body"
// @Success 200 {object} apimodels.Response{data=string}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/portal/ticket [post]
func (c *ticketApiController) create(ctx *fiber.Ctx) error {
	var payload ticketapimodels.TicketCreateData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	requester, err := employeehandler.Instance.GetByID(middleware.GetUserID(ctx))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	id, err := tickethandler.Instance.Create(requester, payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка создания заявки")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(id))
}

// @Summary Выгрузка реестра заявок
// @Tags Заявки
// @Description Выгрузка реестра заявок в Excel
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 ticketapimodels.TicketFilter	true	"request body"
// @Success 200
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/portal/ticket/export [post]
func (c *ticketApiController) export(ctx *fiber.Ctx) error {
	var payload ticketapimodels.TicketFilter
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	c.scopeFilter(ctx, &payload)
	data, err := tickethandler.Instance.Export(payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка выгрузки реестра заявок в Excel")
	}
	fileName := fmt.Sprintf("tickets-%v.xlsx", time.Now().Format("20060102-150405"))
	ctx.Set("Content-Type", "application/vnd.ms-excel")
	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="`+fileName+`"`)
	return ctx.SendStream(data)
}

// @Summary Получение заявки
// @Tags Заявки
// @Description Получение заявки по ИД
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=ticketapimodels.TicketView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/portal/ticket/{id} [get]
func (c *ticketApiController) get(ctx *fiber.Ctx) error {
	rec, err := c.getAllowedRec(ctx)
	if rec == nil {
		return err
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(ticketapimodels.TicketConvert(*rec)))
}

// @Summary История заявки
// @Tags Заявки
// @Description Журнал событий заявки
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=[]ticketapimodels.TicketEventView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/portal/ticket/{id}/history [get]
func (c *ticketApiController) history(ctx *fiber.Ctx) error {
	rec, err := c.getAllowedRec(ctx)
	if rec == nil {
		return err
	}
	list, err := tickethandler.Instance.History(rec.ID)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения истории заявки")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Смена статуса
// @Tags Заявки
// @Description Перевод заявки в новый статус
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Param	body body	 ticketapimodels.TicketStatusData	true	"request body"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/portal/ticket/{id}/status [put]
func (c *ticketApiController) changeStatus(ctx *fiber.Ctx) error {
	rec, err := c.getAllowedRec(ctx)
	if rec == nil {
		return err
	}
	var payload ticketapimodels.TicketStatusData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	err = tickethandler.Instance.ChangeStatus(rec.ID, middleware.GetUserID(ctx), middleware.GetUserRole(ctx), payload.Status)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка смены статуса заявки")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Смена приоритета
// @Tags Заявки
// @Description Смена приоритета заявки
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Param	body body	 ticketapimodels.TicketPriorityData	true	"request body"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/portal/ticket/{id}/priority [put]
func (c *ticketApiController) changePriority(ctx *fiber.Ctx) error {
	rec, err := c.getAllowedRec(ctx)
	if rec == nil {
		return err
	}
	if !middleware.GetUserRole(ctx).HasDomainAccess(rec.Domain) {
		return ctx.Status(fiber.StatusForbidden).JSON(apimodels.NewError("операция недоступна"))
	}
	var payload ticketapimodels.TicketPriorityData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	err = tickethandler.Instance.ChangePriority(rec.ID, middleware.GetUserID(ctx), payload.Priority)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка смены приоритета заявки")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Комментарий
// @Tags Заявки
// @Description Добавление комментария к заявке
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Param	body body	 ticketapimodels.TicketNoteData	true	"request body"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/portal/ticket/{id}/note [put]
func (c *ticketApiController) addNote(ctx *fiber.Ctx) error {
	rec, err := c.getAllowedRec(ctx)
	if rec == nil {
		return err
	}
	var payload ticketapimodels.TicketNoteData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	err = tickethandler.Instance.AddNote(rec.ID, middleware.GetUserID(ctx), payload.Note)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка добавления комментария")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Назначение исполнителя
// @Tags Заявки
// @Description Назначение исполнителя на заявку
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Param	body body	 ticketapimodels.TicketAssignData	true	"request body"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/portal/ticket/{id}/assign [put]
func (c *ticketApiController) assign(ctx *fiber.Ctx) error {
	rec, err := c.getDomainRec(ctx)
	if rec == nil {
		return err
	}
	var payload ticketapimodels.TicketAssignData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	err = assignmenthandler.Instance.Assign(rec.ID, payload.EngineerID, middleware.GetUserID(ctx))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка назначения исполнителя")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Взять в работу
// @Tags Заявки
// @Description Инженер берет заявку себе
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/portal/ticket/{id}/claim [put]
func (c *ticketApiController) claim(ctx *fiber.Ctx) error {
	rec, err := c.getDomainRec(ctx)
	if rec == nil {
		return err
	}
	err = assignmenthandler.Instance.Claim(rec.ID, middleware.GetUserID(ctx))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка взятия заявки в работу")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Снятие исполнителя
// @Tags Заявки
// @Description Снятие текущего исполнителя с заявки
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/portal/ticket/{id}/unassign [put]
func (c *ticketApiController) unassign(ctx *fiber.Ctx) error {
	rec, err := c.getDomainRec(ctx)
	if rec == nil {
		return err
	}
	err = assignmenthandler.Instance.Unassign(rec.ID, middleware.GetUserID(ctx))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка снятия исполнителя")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Повторное открытие
// @Tags Заявки
// @Description Возврат решенной или закрытой заявки в работу
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/portal/ticket/{id}/reopen [put]
func (c *ticketApiController) reopen(ctx *fiber.Ctx) error {
	rec, err := c.getAllowedRec(ctx)
	if rec == nil {
		return err
	}
	err = tickethandler.Instance.Reopen(rec.ID, middleware.GetUserID(ctx))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка повторного открытия заявки")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// scopeFilter - сотрудник видит только свои заявки, админ - заявки своего домена
func (c *ticketApiController) scopeFilter(ctx *fiber.Ctx, filter *ticketapimodels.TicketFilter) {
	switch middleware.GetUserRole(ctx) {
	case models.UserRoleSuperAdmin:
	case models.UserRoleITAdmin:
		filter.Domain = models.TicketDomainIT
	case models.UserRoleTravelAdmin:
		filter.Domain = models.TicketDomainTravel
	default:
		filter.RequesterID = middleware.GetUserID(ctx)
	}
}

// getAllowedRec - заявка доступна заявителю и админу ее домена
func (c *ticketApiController) getAllowedRec(ctx *fiber.Ctx) (*dbmodels.Ticket, error) {
	rec, err := c.getRec(ctx)
	if err != nil {
		return nil, err
	}
	if rec.RequesterID != middleware.GetUserID(ctx) &&
		!middleware.GetUserRole(ctx).HasDomainAccess(rec.Domain) {
		return nil, ctx.Status(fiber.StatusForbidden).JSON(apimodels.NewError("операция недоступна"))
	}
	return rec, nil
}

// getDomainRec - заявка доступна только админу ее домена
func (c *ticketApiController) getDomainRec(ctx *fiber.Ctx) (*dbmodels.Ticket, error) {
	rec, err := c.getRec(ctx)
	if err != nil {
		return nil, err
	}
	if !middleware.GetUserRole(ctx).HasDomainAccess(rec.Domain) {
		return nil, ctx.Status(fiber.StatusForbidden).JSON(apimodels.NewError("операция недоступна"))
	}
	return rec, nil
}

func (c *ticketApiController) getRec(ctx *fiber.Ctx) (*dbmodels.Ticket, error) {
	id, err := c.GetID(ctx)
	if err != nil {
		return nil, ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	rec, err := tickethandler.Instance.GetRec(id)
	if err != nil {
		return nil, ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	return rec, nil
}
