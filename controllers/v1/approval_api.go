package apiv1

import (
	"employee-portal-backend/controllers"
	approvalhandler "employee-portal-backend/lib/approval"
	employeehandler "employee-portal-backend/lib/employee"
	tickethandler "employee-portal-backend/lib/ticket"
	"employee-portal-backend/middleware"
	apimodels "employee-portal-backend/models/api"
	ticketapimodels "employee-portal-backend/models/api/ticket"
	dbmodels "employee-portal-backend/models/db"

	"github.com/gofiber/fiber/v2"
)

type approvalApiController struct {
	controllers.BaseAPIController
}

func InitApprovalApiRouters(app *fiber.App) {
	controller := approvalApiController{}
	app.Route("approval", func(router fiber.Router) {
		router.Get("my", controller.my)
		router.Get("ticket/:id", controller.byTicket)
		router.Route(":id", func(idRoute fiber.Router) {
			idRoute.Put("approve", controller.approve)
			idRoute.Put("reject", controller.reject)
		})
	})
}

// @Summary Мои задачи согласования
// @Tags Согласование
// @Description Список задач согласования текущего пользователя, ожидающих решения
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200 {object} apimodels.Response{data=[]ticketapimodels.ApprovalView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/portal/approval/my [get]
func (c *approvalApiController) my(ctx *fiber.Ctx) error {
	email := middleware.GetUserEmail(ctx)
	if email == "" {
		return ctx.Status(fiber.StatusForbidden).JSON(apimodels.NewError("операция недоступна"))
	}
	list, err := approvalhandler.Instance.ListMy(email)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения задач согласования")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Согласования по заявке
// @Tags Согласование
// @Description Цепочка согласования по заявке
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "ticket ID"
// @Success 200 {object} apimodels.Response{data=[]ticketapimodels.ApprovalView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/portal/approval/ticket/{id} [get]
func (c *approvalApiController) byTicket(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	rec, err := tickethandler.Instance.GetRec(id)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if rec.RequesterID != middleware.GetUserID(ctx) &&
		!middleware.GetUserRole(ctx).HasDomainAccess(rec.Domain) {
		return ctx.Status(fiber.StatusForbidden).JSON(apimodels.NewError("операция недоступна"))
	}
	list, err := approvalhandler.Instance.ListByTicket(rec.ID)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения цепочки согласования")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Согласовать
// @Tags Согласование
// @Description Положительное решение по задаче согласования
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Param	body body	 ticketapimodels.ApprovalDecisionData	true	"request body"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/portal/approval/{id}/approve [put]
func (c *approvalApiController) approve(ctx *fiber.Ctx) error {
	return c.decide(ctx, approvalhandler.Instance.Approve, "Ошибка согласования заявки")
}

// @Summary Отклонить
// @Tags Согласование
// @Description Отрицательное решение по задаче согласования, заявка закрывается
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Param	body body	 ticketapimodels.ApprovalDecisionData	true	"request body"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/portal/approval/{id}/reject [put]
func (c *approvalApiController) reject(ctx *fiber.Ctx) error {
	return c.decide(ctx, approvalhandler.Instance.Reject, "Ошибка отклонения заявки")
}

func (c *approvalApiController) decide(
	ctx *fiber.Ctx,
	action func(string, dbmodels.Employee, ticketapimodels.ApprovalDecisionData) error,
	errMsg string,
) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload ticketapimodels.ApprovalDecisionData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	actor, err := employeehandler.Instance.GetByID(middleware.GetUserID(ctx))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = action(id, actor, payload); err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, errMsg)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}
