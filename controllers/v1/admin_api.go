package apiv1

import (
	"employee-portal-backend/controllers"
	eventarchivehandler "employee-portal-backend/lib/event-archive"
	slahandler "employee-portal-backend/lib/sla"
	"employee-portal-backend/middleware"
	apimodels "employee-portal-backend/models/api"
	ticketapimodels "employee-portal-backend/models/api/ticket"

	"github.com/gofiber/fiber/v2"
)

type adminApiController struct {
	controllers.BaseAPIController
}

func InitAdminApiRouters(app *fiber.App) {
	controller := adminApiController{}
	app.Route("admin", func(router fiber.Router) {
		router.Use(middleware.SuperAdminRoleRequired())
		router.Put("sla/run", controller.slaRun)
		router.Get("sla/config", controller.slaConfigGet)
		router.Put("sla/config", controller.slaConfigSet)
		router.Put("events/archive", controller.eventsArchive)
	})
}

// @Summary Запуск SLA-монитора
// @Tags Администрирование
// @Description Внеочередной проход SLA-монитора
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200 {object} apimodels.Response{data=ticketapimodels.SlaJobResult}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/portal/admin/sla/run [put]
func (c *adminApiController) slaRun(ctx *fiber.Ctx) error {
	result := slahandler.Instance.RunCheck(ctx.UserContext())
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(result))
}

// @Summary Нормативы SLA
// @Tags Администрирование
// @Description Действующие нормативы SLA по приоритетам
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200 {object} apimodels.Response{data=[]ticketapimodels.SlaConfigView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/portal/admin/sla/config [get]
func (c *adminApiController) slaConfigGet(ctx *fiber.Ctx) error {
	list, err := slahandler.Instance.GetConfig()
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения нормативов SLA")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Изменение норматива SLA
// @Tags Администрирование
// @Description Изменение норматива SLA для приоритета
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 ticketapimodels.SlaConfigData	true	"request body"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/portal/admin/sla/config [put]
func (c *adminApiController) slaConfigSet(ctx *fiber.Ctx) error {
	var payload ticketapimodels.SlaConfigData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := slahandler.Instance.SetConfig(payload); err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка изменения норматива SLA")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Архивация журнала событий
// @Tags Администрирование
// @Description Выгрузка событий давно закрытых заявок в S3 и очистка БД
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200 {object} apimodels.Response{data=ticketapimodels.ArchiveResult}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/portal/admin/events/archive [put]
func (c *adminApiController) eventsArchive(ctx *fiber.Ctx) error {
	result, err := eventarchivehandler.Instance.Archive(ctx.UserContext())
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка архивации журнала событий")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(result))
}
