package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/daftarhq/daftar_backend/middlewares"
	"github.com/daftarhq/daftar_backend/models"
	"github.com/daftarhq/daftar_backend/models/reports"
	"github.com/daftarhq/daftar_backend/utils"
	"github.com/daftarhq/daftar_backend/workflow"
	"github.com/gin-gonic/gin"
)

func registerRoutes(r *gin.Engine) {
	r.POST("/api/auth/login", loginHandler)

	api := r.Group("/api", middlewares.RequireAuth())
	write := api.Group("", middlewares.RequirePostingRole())
	admin := api.Group("", middlewares.RequireAdmin())

	api.GET("/accounts", listAccountsHandler)
	write.POST("/accounts", createAccountHandler)
	api.GET("/accounts/:id", getAccountHandler)
	write.PUT("/accounts/:id", updateAccountHandler)
	write.PUT("/accounts/:id/active", markAccountActiveHandler)
	api.GET("/accounts/:id/balance", accountBalanceHandler)
	api.GET("/accounts/:id/statement", accountStatementHandler)

	api.GET("/transactions", listTransactionsHandler)
	write.POST("/transactions", createTransactionHandler)
	api.GET("/transactions/:id", getTransactionHandler)

	api.GET("/journal-entries", listJournalEntriesHandler)
	write.POST("/journal-entries", createJournalEntryHandler)
	api.GET("/journal-entries/:id", getJournalEntryHandler)
	write.POST("/journal-entries/:id/post", postJournalEntryHandler)
	write.POST("/journal-entries/:id/cancel", cancelJournalEntryHandler)
	write.POST("/journal-entries/:id/reverse", reverseJournalEntryHandler)

	api.GET("/customers", listCustomersHandler)
	write.POST("/customers", createCustomerHandler)
	api.GET("/customers/:id", getCustomerHandler)
	write.PUT("/customers/:id", updateCustomerHandler)
	api.GET("/customers/:id/statement", customerStatementHandler)
	api.GET("/customers/:id/statement.xlsx", customerStatementExcelHandler)

	api.GET("/suppliers", listSuppliersHandler)
	write.POST("/suppliers", createSupplierHandler)
	api.GET("/suppliers/:id", getSupplierHandler)
	write.PUT("/suppliers/:id", updateSupplierHandler)

	api.GET("/products", listProductsHandler)
	write.POST("/products", createProductHandler)
	api.GET("/products/:id", getProductHandler)
	write.PUT("/products/:id", updateProductHandler)

	api.GET("/invoices", listInvoicesHandler)
	write.POST("/invoices", createInvoiceHandler)
	api.GET("/invoices/:id", getInvoiceHandler)
	write.POST("/invoices/:id/confirm", confirmInvoiceHandler)
	write.POST("/invoices/:id/cancel", cancelInvoiceHandler)

	api.GET("/payments", listPaymentsHandler)
	write.POST("/payments", createPaymentHandler)
	api.GET("/payments/:id", getPaymentHandler)

	api.GET("/reports/trial-balance", trialBalanceHandler)
	api.GET("/reports/trial-balance.xlsx", trialBalanceExcelHandler)
	api.GET("/reports/balance-sheet", balanceSheetHandler)
	api.GET("/reports/income-statement", incomeStatementHandler)
	api.GET("/reports/equation", equationHandler)

	admin.POST("/users", createUserHandler)
	admin.GET("/users/:id", getUserHandler)
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "", "data": data})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "", "data": data})
}

// respondError picks the status from the error kind: bad input is 400,
// a missing record 404, lifecycle violations 409, an unbalanced entry
// 422. Anything else is a 500 with the detail kept out of the response.
func respondError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, utils.ErrorUnbalancedEntry):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, utils.ErrorInvalidState):
		status = http.StatusConflict
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"success": false, "message": err.Error()})
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid id"})
		return 0, false
	}
	return id, true
}

func actorId(c *gin.Context) int {
	id, _ := utils.GetUserIdFromContext(c.Request.Context())
	return id
}

func queryDate(c *gin.Context, name string) (*time.Time, bool) {
	v := c.Query(name)
	if v == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": name + " must be YYYY-MM-DD"})
		return nil, false
	}
	return &t, true
}

// queryPeriod defaults to the current month when no range is given.
func queryPeriod(c *gin.Context) (time.Time, time.Time, bool) {
	from, ok := queryDate(c, "from")
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	to, ok := queryDate(c, "to")
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	if from == nil || to == nil {
		start, end := utils.GetThisMonthRange()
		if from == nil {
			from = &start
		}
		if to == nil {
			to = &end
		}
	}
	return *from, *to, true
}

// --- auth ---

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func loginHandler(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, utils.NewValidationError("body", "username and password are required"))
		return
	}
	info, err := models.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": err.Error()})
		return
	}
	respondOK(c, info)
}

// --- accounts ---

func createAccountHandler(c *gin.Context) {
	var input models.NewAccount
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, utils.NewValidationError("body", err.Error()))
		return
	}
	account, err := models.CreateAccount(c.Request.Context(), &input, actorId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, account)
}

func updateAccountHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewAccount
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, utils.NewValidationError("body", err.Error()))
		return
	}
	account, err := models.UpdateAccount(c.Request.Context(), id, &input, actorId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, account)
}

type markActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func markAccountActiveHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var req markActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, utils.NewValidationError("is_active", "required"))
		return
	}
	account, err := models.MarkAccountActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, account)
}

func getAccountHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	account, err := models.GetAccount(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, account)
}

func listAccountsHandler(c *gin.Context) {
	name := utils.NilIfEmpty(c.Query("name"))
	code := utils.NilIfEmpty(c.Query("code"))
	accounts, err := models.GetAccounts(c.Request.Context(), name, code)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, accounts)
}

func accountBalanceHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	asOf, ok := queryDate(c, "as_of")
	if !ok {
		return
	}
	balance, err := models.GetAccountBalance(c.Request.Context(), id, asOf)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := gin.H{"account_id": id, "balance": balance}
	if asOf != nil {
		resp["as_of"] = asOf.Format("2006-01-02")
	}
	respondOK(c, resp)
}

func accountStatementHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	from, to, ok := queryPeriod(c)
	if !ok {
		return
	}
	report, err := reports.GetAccountStatement(c.Request.Context(), id, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, report)
}

// --- transactions ---

func createTransactionHandler(c *gin.Context) {
	var input models.NewTransaction
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, utils.NewValidationError("body", err.Error()))
		return
	}
	transaction, err := models.CreateTransaction(c.Request.Context(), &input, actorId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, transaction)
}

func getTransactionHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	transaction, err := models.GetTransaction(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, transaction)
}

func listTransactionsHandler(c *gin.Context) {
	var accountId *int
	if v := c.Query("account_id"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(c, utils.NewValidationError("account_id", "must be an integer"))
			return
		}
		accountId = &n
	}
	from, ok := queryDate(c, "from")
	if !ok {
		return
	}
	to, ok := queryDate(c, "to")
	if !ok {
		return
	}
	transactions, err := models.GetTransactions(c.Request.Context(), accountId, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, transactions)
}

// --- journal entries ---

func createJournalEntryHandler(c *gin.Context) {
	var input models.NewJournalEntry
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, utils.NewValidationError("body", err.Error()))
		return
	}
	entry, err := models.CreateJournalEntry(c.Request.Context(), &input, actorId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, entry)
}

func getJournalEntryHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	entry, err := models.GetJournalEntry(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, entry)
}

func listJournalEntriesHandler(c *gin.Context) {
	var status *models.JournalStatus
	if v := c.Query("status"); v != "" {
		s := models.JournalStatus(v)
		status = &s
	}
	from, ok := queryDate(c, "from")
	if !ok {
		return
	}
	to, ok := queryDate(c, "to")
	if !ok {
		return
	}
	entries, err := models.GetJournalEntries(c.Request.Context(), status, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, entries)
}

func postJournalEntryHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	entry, err := workflow.PostJournalEntry(c.Request.Context(), id, actorId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, entry)
}

func cancelJournalEntryHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	entry, err := models.CancelJournalEntry(c.Request.Context(), id, actorId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, entry)
}

type reverseRequest struct {
	Reason string `json:"reason"`
}

func reverseJournalEntryHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var req reverseRequest
	_ = c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = workflow.ReversalReasonManualCorrection
	}
	entry, err := workflow.ReverseJournalEntry(c.Request.Context(), id, req.Reason, actorId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, entry)
}

// --- customers ---

func createCustomerHandler(c *gin.Context) {
	var input models.NewCustomer
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, utils.NewValidationError("body", err.Error()))
		return
	}
	customer, err := models.CreateCustomer(c.Request.Context(), &input, actorId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, customer)
}

func updateCustomerHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewCustomer
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, utils.NewValidationError("body", err.Error()))
		return
	}
	customer, err := models.UpdateCustomer(c.Request.Context(), id, &input, actorId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, customer)
}

func getCustomerHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	customer, err := models.GetCustomer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, customer)
}

func listCustomersHandler(c *gin.Context) {
	name := utils.NilIfEmpty(c.Query("name"))
	customers, err := models.GetCustomers(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, customers)
}

func customerStatementHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	from, to, ok := queryPeriod(c)
	if !ok {
		return
	}
	report, err := reports.GetCustomerStatement(c.Request.Context(), id, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, report)
}

func customerStatementExcelHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	from, to, ok := queryPeriod(c)
	if !ok {
		return
	}
	report, err := reports.GetCustomerStatement(c.Request.Context(), id, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=customer-statement.xlsx")
	if err := reports.WriteCustomerStatementExcel(c.Writer, report); err != nil {
		_ = c.Error(err)
	}
}

// --- suppliers ---

func createSupplierHandler(c *gin.Context) {
	var input models.NewSupplier
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, utils.NewValidationError("body", err.Error()))
		return
	}
	supplier, err := models.CreateSupplier(c.Request.Context(), &input, actorId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, supplier)
}

func updateSupplierHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewSupplier
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, utils.NewValidationError("body", err.Error()))
		return
	}
	supplier, err := models.UpdateSupplier(c.Request.Context(), id, &input, actorId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, supplier)
}

func getSupplierHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	supplier, err := models.GetSupplier(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, supplier)
}

func listSuppliersHandler(c *gin.Context) {
	name := utils.NilIfEmpty(c.Query("name"))
	suppliers, err := models.GetSuppliers(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, suppliers)
}

// --- products ---

func createProductHandler(c *gin.Context) {
	var input models.NewProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, utils.NewValidationError("body", err.Error()))
		return
	}
	product, err := models.CreateProduct(c.Request.Context(), &input, actorId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, product)
}

func updateProductHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, utils.NewValidationError("body", err.Error()))
		return
	}
	product, err := models.UpdateProduct(c.Request.Context(), id, &input, actorId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, product)
}

func getProductHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	product, err := models.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, product)
}

func listProductsHandler(c *gin.Context) {
	name := utils.NilIfEmpty(c.Query("name"))
	lowStock := c.Query("low_stock") == "true"
	products, err := models.GetProducts(c.Request.Context(), name, lowStock)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, products)
}

// --- invoices ---

func createInvoiceHandler(c *gin.Context) {
	var input models.NewInvoice
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, utils.NewValidationError("body", err.Error()))
		return
	}
	invoice, err := models.CreateInvoice(c.Request.Context(), &input, actorId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, invoice)
}

func getInvoiceHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	invoice, err := models.GetInvoice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, invoice)
}

func listInvoicesHandler(c *gin.Context) {
	var invoiceType *models.InvoiceType
	if v := c.Query("type"); v != "" {
		t := models.InvoiceType(v)
		invoiceType = &t
	}
	var status *models.InvoiceStatus
	if v := c.Query("status"); v != "" {
		s := models.InvoiceStatus(v)
		status = &s
	}
	customerId := queryIntPtr(c, "customer_id")
	supplierId := queryIntPtr(c, "supplier_id")
	invoices, err := models.GetInvoices(c.Request.Context(), invoiceType, status, customerId, supplierId)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, invoices)
}

func confirmInvoiceHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	invoice, err := workflow.ConfirmInvoice(c.Request.Context(), id, actorId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, invoice)
}

func cancelInvoiceHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	invoice, err := workflow.CancelInvoice(c.Request.Context(), id, actorId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, invoice)
}

// --- payments ---

func createPaymentHandler(c *gin.Context) {
	var input models.NewPayment
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, utils.NewValidationError("body", err.Error()))
		return
	}
	payment, err := workflow.CreatePayment(c.Request.Context(), &input, actorId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, payment)
}

func getPaymentHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	payment, err := models.GetPayment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, payment)
}

func listPaymentsHandler(c *gin.Context) {
	var paymentType *models.PaymentType
	if v := c.Query("type"); v != "" {
		t := models.PaymentType(v)
		paymentType = &t
	}
	customerId := queryIntPtr(c, "customer_id")
	supplierId := queryIntPtr(c, "supplier_id")
	from, ok := queryDate(c, "from")
	if !ok {
		return
	}
	to, ok := queryDate(c, "to")
	if !ok {
		return
	}
	payments, err := models.GetPayments(c.Request.Context(), paymentType, customerId, supplierId, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, payments)
}

// --- reports ---

func trialBalanceHandler(c *gin.Context) {
	from, to, ok := queryPeriod(c)
	if !ok {
		return
	}
	report, err := reports.GetTrialBalanceReport(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, report)
}

func trialBalanceExcelHandler(c *gin.Context) {
	from, to, ok := queryPeriod(c)
	if !ok {
		return
	}
	report, err := reports.GetTrialBalanceReport(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=trial-balance.xlsx")
	if err := reports.WriteTrialBalanceExcel(c.Writer, report); err != nil {
		_ = c.Error(err)
	}
}

func balanceSheetHandler(c *gin.Context) {
	to, ok := queryDate(c, "to")
	if !ok {
		return
	}
	if to == nil {
		now := time.Now()
		to = &now
	}
	report, err := reports.GetBalanceSheetReport(c.Request.Context(), *to)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, report)
}

func incomeStatementHandler(c *gin.Context) {
	from, to, ok := queryPeriod(c)
	if !ok {
		return
	}
	report, err := reports.GetIncomeStatementReport(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, report)
}

func equationHandler(c *gin.Context) {
	check, err := workflow.ValidateAccountingEquation(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, check)
}

// --- users ---

func createUserHandler(c *gin.Context) {
	var input models.NewUser
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, utils.NewValidationError("body", err.Error()))
		return
	}
	user, err := models.CreateUser(c.Request.Context(), &input, actorId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, user)
}

func getUserHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	user, err := models.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, user)
}

func queryIntPtr(c *gin.Context, name string) *int {
	v := c.Query(name)
	if v == "" {
		return nil
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return &n
	}
	return nil
}
