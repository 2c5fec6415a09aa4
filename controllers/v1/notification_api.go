package apiv1

import (
	"employee-portal-backend/controllers"
	notificationhandler "employee-portal-backend/lib/notification"
	"employee-portal-backend/middleware"
	"employee-portal-backend/models"
	apimodels "employee-portal-backend/models/api"
	ticketapimodels "employee-portal-backend/models/api/ticket"

	"github.com/gofiber/fiber/v2"
)

type notificationApiController struct {
	controllers.BaseAPIController
}

func InitNotificationApiRouters(app *fiber.App) {
	controller := notificationApiController{}
	app.Route("notification", func(router fiber.Router) {
		router.Use(middleware.AdminRoleRequired())
		router.Post("list", controller.list)
		router.Put(":id/retry", controller.retry)
	})
}

// @Summary Журнал неотправленных уведомлений
// @Tags Уведомления
// @Description Список сбойных уведомлений с фильтром и пагинацией
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 ticketapimodels.NotificationFailureFilter	true	"request body"
// @Success 200 {object} apimodels.ScrollerResponse{data=[]ticketapimodels.NotificationFailureView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/portal/notification/list [post]
func (c *notificationApiController) list(ctx *fiber.Ctx) error {
	var payload ticketapimodels.NotificationFailureFilter
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	switch middleware.GetUserRole(ctx) {
	case models.UserRoleITAdmin:
		payload.Domain = models.TicketDomainIT
	case models.UserRoleTravelAdmin:
		payload.Domain = models.TicketDomainTravel
	}
	list, rowCount, err := notificationhandler.Instance.List(payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения журнала уведомлений")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewScrollerResponse(list, rowCount))
}

// @Summary Повторная отправка
// @Tags Уведомления
// @Description Ручная повторная отправка сбойного уведомления
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=ticketapimodels.NotificationFailureView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/portal/notification/{id}/retry [put]
func (c *notificationApiController) retry(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	view, err := notificationhandler.Instance.Retry(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка повторной отправки уведомления")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}
